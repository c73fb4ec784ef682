package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/ncaabb-scrape/internal/config"
	"github.com/pfrederiksen/ncaabb-scrape/internal/fault"
	"github.com/pfrederiksen/ncaabb-scrape/internal/filter"
	"github.com/pfrederiksen/ncaabb-scrape/internal/logger"
	"github.com/pfrederiksen/ncaabb-scrape/internal/merge"
	"github.com/pfrederiksen/ncaabb-scrape/internal/pipeline"
	"github.com/pfrederiksen/ncaabb-scrape/internal/schedule"
	"github.com/pfrederiksen/ncaabb-scrape/internal/scraper"
	"github.com/pfrederiksen/ncaabb-scrape/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	// ExitPartial means the run finished but some dates could not be fetched
	ExitPartial = 2
)

var (
	flagConfig  string
	flagDataDir string
	flagStart   string
	flagEnd     string
	flagFormat  string
	flagVerbose bool
	flagLogFile string
	flagNoXLSX  bool
	flagOutput  string
	flagSort    string

	exitCode = ExitSuccess
)

// NewRootCmd creates the root command and its subcommands
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ncaabb-scrape",
		Short: "Scrape NCAA basketball stats, scores and injuries",
		Long: `A CLI tool that incrementally scrapes NCAA men's basketball team stats,
game scores and injury reports into local stores. Each run fetches only
the dates that are missing, failed, or lack a configured column.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default ~/.config/ncaabb-scrape/config.yaml)")
	pf.StringVar(&flagDataDir, "data-dir", "", "Data directory for the stores (overrides config)")
	pf.StringVar(&flagStart, "start", "", "First date YYYY-MM-DD (overrides config)")
	pf.StringVar(&flagEnd, "end", "", "Last date YYYY-MM-DD (default today)")
	pf.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	pf.StringVar(&flagLogFile, "log-file", "", "Also append log lines to this file, or to a new pipeline_log_<time>.txt when given a directory")

	cmd.AddCommand(
		newStepCmd(pipeline.StepStats, "Scrape and merge team stat and rating pages"),
		newStepCmd(pipeline.StepScores, "Scrape game scores"),
		newStepCmd(pipeline.StepInjuries, "Scrape injury reports"),
		newRunCmd(),
		newStatusCmd(),
		newExportCmd(),
		newTeamsCmd(),
	)
	return cmd
}

// app holds what every command needs after flags are parsed
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	logFile *os.File
	runID   string
	format  OutputFormat
}

func setup(cmd *cobra.Command) (*app, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagStart != "" {
		cfg.Start = flagStart
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	var out io.Writer = cmd.ErrOrStderr()
	var logFile *os.File
	if flagLogFile != "" {
		logFile, err = openLogFile(flagLogFile, time.Now())
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(out, logFile)
	}

	runID := uuid.NewString()
	log := logger.New(level, out).With(logger.Fields{
		"run_id":  runID,
		"command": cmd.Name(),
	})
	logger.SetDefault(log)

	return &app{cfg: cfg, log: log, logFile: logFile, runID: runID, format: format}, nil
}

// openLogFile opens path for appending. A directory gets a new file named
// after the run's start time.
func openLogFile(path string, now time.Time) (*os.File, error) {
	path, err := storage.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "pipeline_log_"+now.Format("20060102_150405")+".txt")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// close releases the log file, if any. The default logger goes back to stderr.
func (a *app) close() {
	if a.logFile == nil {
		return
	}
	logger.SetDefault(logger.New(logger.LevelInfo, os.Stderr))
	a.logFile.Close() // nolint:errcheck
	a.logFile = nil
}

// dateRange resolves the start and end flags against the config
func (a *app) dateRange(now time.Time) (time.Time, time.Time, error) {
	start, err := a.cfg.StartDate()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := schedule.Day(now)
	if flagEnd != "" {
		end, err = schedule.ParseDate(flagEnd)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, &schedule.ScheduleError{
			Input:  schedule.Format(start) + ".." + schedule.Format(end),
			Reason: "end is before start",
		}
	}
	return start, end, nil
}

func (a *app) openBackend(writer bool) (storage.Backend, error) {
	b, err := storage.Open(a.cfg.Storage.Type, a.cfg.DataDir, a.cfg.Storage.DSN, writer)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return b, nil
}

// newRunner builds the scraper, merge engine and pipeline over backend
func (a *app) newRunner(backend storage.Backend) (*pipeline.Runner, error) {
	pages, err := a.cfg.PageList()
	if err != nil {
		return nil, err
	}

	sc := scraper.New(a.cfg.ScraperSettings())
	sc.SetLogger(a.log)

	engine, err := merge.NewEngine(sc, pages, a.cfg.Season)
	if err != nil {
		return nil, err
	}
	engine.SetLogger(a.log)

	return pipeline.New(pipeline.Config{
		Engine:    engine,
		Boxscores: sc,
		Injuries:  sc,
		Filter:    filter.NewCompetition(a.cfg.ExcludeTokens),
		Stores:    pipeline.NewStores(backend),
		Logger:    a.log,
	})
}

func (a *app) scoresPath() (string, error) {
	if flagOutput != "" {
		return flagOutput, nil
	}
	if filepath.IsAbs(a.cfg.ScoresFile) {
		return a.cfg.ScoresFile, nil
	}
	dir, err := storage.ExpandHome(a.cfg.DataDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, a.cfg.ScoresFile), nil
}

// finish logs the run metrics and sets the exit code from the summary
func (a *app) finish(sum pipeline.Summary) {
	a.log.Info("run metrics", logger.DefaultMetrics().Summary())
	for _, s := range sum.Steps {
		if !s.OK() {
			exitCode = ExitPartial
		}
	}
}

func newStepCmd(step, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   step,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteps(cmd, step)
		},
	}
	if step == pipeline.StepScores {
		cmd.Flags().BoolVar(&flagNoXLSX, "no-xlsx", false, "Skip writing the scores workbook")
	}
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run stats, scores and injuries in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSteps(cmd, "")
		},
	}
	cmd.Flags().BoolVar(&flagNoXLSX, "no-xlsx", false, "Skip writing the scores workbook")
	return cmd
}

// runSteps runs one step, or all of them when step is empty
func runSteps(cmd *cobra.Command, step string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	start, end, err := a.dateRange(time.Now())
	if err != nil {
		return err
	}

	backend, err := a.openBackend(true)
	if err != nil {
		return err
	}
	defer backend.Close()

	runner, err := a.newRunner(backend)
	if err != nil {
		return err
	}

	a.log.Info("run starting", logger.Fields{
		"start":    schedule.Format(start),
		"end":      schedule.Format(end),
		"data_dir": a.cfg.DataDir,
	})

	ctx := cmd.Context()
	var sum pipeline.Summary
	var runErr error
	switch step {
	case pipeline.StepStats:
		s, err := runner.Stats(ctx, start, end)
		s.Err, runErr = err, err
		sum.Steps = append(sum.Steps, s)
	case pipeline.StepScores:
		s, err := runner.Scores(ctx, start, end)
		s.Err, runErr = err, err
		sum.Steps = append(sum.Steps, s)
	case pipeline.StepInjuries:
		s, err := runner.Injuries(ctx, start, end)
		s.Err, runErr = err, err
		sum.Steps = append(sum.Steps, s)
	default:
		sum, runErr = runner.Run(ctx, start, end)
	}

	if runErr == nil && (step == "" || step == pipeline.StepScores) && !flagNoXLSX {
		if err := exportScores(ctx, a, pipeline.NewStores(backend)); err != nil {
			a.log.Error("scores workbook not written", nil, err)
		}
	}

	a.finish(sum)
	if err := WriteSummary(cmd.OutOrStdout(), a.runID, sum, a.format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("%s: %w", fault.Classify(runErr), runErr)
	}
	return nil
}

// Execute runs the CLI. Ctrl-C cancels the context; the date in flight is
// abandoned and every date saved before it is kept.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted; completed dates were saved.")
		}
		os.Exit(ExitError)
	}
	os.Exit(exitCode)
}
