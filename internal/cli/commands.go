package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/ncaabb-scrape/internal/export"
	"github.com/pfrederiksen/ncaabb-scrape/internal/logger"
	"github.com/pfrederiksen/ncaabb-scrape/internal/pipeline"
	"github.com/pfrederiksen/ncaabb-scrape/internal/schema"
	"github.com/pfrederiksen/ncaabb-scrape/internal/snapshot"
	"github.com/pfrederiksen/ncaabb-scrape/internal/table"
	"github.com/pfrederiksen/ncaabb-scrape/internal/teams"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what each store holds and which keys failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			backend, err := a.openBackend(false)
			if err != nil {
				return err
			}
			defer backend.Close()

			status, err := pipeline.NewStores(backend).Status(cmd.Context())
			if err != nil {
				return err
			}
			return WriteStatus(cmd.OutOrStdout(), status, a.format)
		},
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the scores and injuries workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			backend, err := a.openBackend(false)
			if err != nil {
				return err
			}
			defer backend.Close()

			return exportScores(cmd.Context(), a, pipeline.NewStores(backend))
		},
	}
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Workbook path (default <data-dir>/"+export.DefaultScoresFile+")")
	return cmd
}

// exportScores writes the cumulative scores and every injury table
func exportScores(ctx context.Context, a *app, stores *pipeline.Stores) error {
	path, err := a.scoresPath()
	if err != nil {
		return err
	}

	book, err := stores.LoadScores(ctx)
	if err != nil {
		return err
	}
	injuries, err := stores.Injuries.Load(ctx)
	if err != nil {
		return err
	}

	err = export.Write(path,
		export.Sheet{
			Name:    "scores",
			Table:   book.Games,
			Numeric: []string{pipeline.ColTeamScoreHome, pipeline.ColTeamScoreAway},
		},
		export.Sheet{
			Name:    "injuries",
			Table:   flatten(injuries, "scrape_date"),
			Numeric: []string{"matchup_id"},
		},
	)
	if err != nil {
		return err
	}
	a.log.Info("workbook written", logger.Fields{"path": path, "games": book.Games.Len()})
	return nil
}

// flatten stacks the complete tables of a set in key order, prefixed with
// a column holding the key
func flatten(s snapshot.Set, keyColumn string) table.Table {
	parts := []table.Table{table.New(append([]string{keyColumn}, pipeline.InjuryColumns...)...)}
	for _, k := range s.Keys() {
		if e := s[k]; !e.IsFailed() {
			parts = append(parts, e.Table.WithConstant(keyColumn, k))
		}
	}
	return table.Concat(parts...)
}

func newTeamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Link score-site team names to stat-site team names",
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := parseSortOrder(flagSort)
			if err != nil {
				return err
			}
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			backend, err := a.openBackend(false)
			if err != nil {
				return err
			}
			defer backend.Close()

			stores := pipeline.NewStores(backend)
			book, err := stores.LoadScores(cmd.Context())
			if err != nil {
				return err
			}
			home, err := stores.StatsHome.Load(cmd.Context())
			if err != nil {
				return err
			}

			scoreNames := append(
				book.Games.Distinct(pipeline.ColTeamNameHome),
				book.Games.Distinct(pipeline.ColTeamNameAway)...,
			)
			statNames := statTeams(home)
			if len(statNames) == 0 {
				return fmt.Errorf("no stat snapshot stored yet; run 'ncaabb-scrape stats' first")
			}

			res := teams.Match(scoreNames, statNames, a.cfg.TeamThreshold)
			sortLinks(res.Links, order)
			return WriteLinks(cmd.OutOrStdout(), res, a.format)
		},
	}
	cmd.Flags().StringVar(&flagSort, "sort", string(SortByName), "Sort links by: name or similarity")
	return cmd
}

// statTeams returns the team names of the most recent non-empty snapshot
func statTeams(s snapshot.Set) []string {
	keys := s.Keys()
	for i := len(keys) - 1; i >= 0; i-- {
		e := s[keys[i]]
		if !e.IsFailed() && e.Table.Len() > 0 {
			return e.Table.Distinct(schema.ColTeam)
		}
	}
	return nil
}
