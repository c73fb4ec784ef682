package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, columns []string, rows ...[]string) Table {
	t.Helper()
	tbl := New(columns...)
	for _, r := range rows {
		require.NoError(t, tbl.AddValues(r...))
	}
	return tbl
}

func TestLeftJoin_KeepsUnmatchedRows(t *testing.T) {
	stats := mustTable(t, []string{"Date", "Team", "ppg"},
		[]string{"2025-11-10", "A", "80"},
		[]string{"2025-11-10", "B", "70"},
	)
	rating := mustTable(t, []string{"Date", "Team", "predictive-by-other"},
		[]string{"2025-11-10", "A", "12.5"},
	)

	got, err := LeftJoin(stats, rating, "Date", "Team")
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Team", "ppg", "predictive-by-other"}, got.Columns)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, Value("12.5"), got.Get(0, "predictive-by-other"))
	assert.False(t, got.Get(1, "predictive-by-other").Valid, "team B rating should be null")
}

func TestLeftJoin_FirstRightRowWins(t *testing.T) {
	left := mustTable(t, []string{"Team"}, []string{"A"})
	right := mustTable(t, []string{"Team", "x"},
		[]string{"A", "1"},
		[]string{"A", "2"},
	)

	got, err := LeftJoin(left, right, "Team")
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "1", got.Get(0, "x").String)
}

func TestLeftJoin_SharedColumnCoalesces(t *testing.T) {
	left := New("Team", "x")
	require.NoError(t, left.AddRow(Value("A"), Null()))
	require.NoError(t, left.AddRow(Value("B"), Value("keep")))
	right := mustTable(t, []string{"Team", "x"},
		[]string{"A", "filled"},
		[]string{"B", "ignored"},
	)

	got, err := LeftJoin(left, right, "Team")
	require.NoError(t, err)
	assert.Equal(t, []string{"Team", "x"}, got.Columns)
	assert.Equal(t, "filled", got.Get(0, "x").String)
	assert.Equal(t, "keep", got.Get(1, "x").String)
}

func TestLeftJoin_MissingKey(t *testing.T) {
	left := mustTable(t, []string{"Team"}, []string{"A"})
	right := mustTable(t, []string{"Name"}, []string{"A"})

	_, err := LeftJoin(left, right, "Team")
	assert.Error(t, err)

	_, err = LeftJoin(left, right)
	assert.Error(t, err)
}

func TestConcat_UnionsColumns(t *testing.T) {
	a := mustTable(t, []string{"k", "x"}, []string{"1", "a"})
	b := mustTable(t, []string{"y", "k"}, []string{"b", "2"})

	got := Concat(a, b)

	want := Table{
		Columns: []string{"k", "x", "y"},
		Rows: [][]Cell{
			{Value("1"), Value("a"), Null()},
			{Value("2"), Null(), Value("b")},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Concat() mismatch (-want +got):\n%s", diff)
	}
}

func TestAppend(t *testing.T) {
	key := []string{"date_game", "team_name_home", "team_name_away"}
	cols := []string{"date_game", "team_name_home", "team_name_away", "team_score_home"}

	existing := mustTable(t, cols,
		[]string{"2025-11-10", "Duke", "Army", "90"},
		[]string{"2025-11-10", "UNC", "Navy", "88"},
		[]string{"2025-11-11", "Kansas", "Iowa", "77"},
	)

	t.Run("subset leaves row count and survivor order unchanged", func(t *testing.T) {
		newRows := mustTable(t, cols, []string{"2025-11-10", "UNC", "Navy", "88"})

		got := Append(existing, newRows, key...)

		require.Equal(t, existing.Len(), got.Len())
		var homes []string
		for i := range got.Rows {
			homes = append(homes, got.Get(i, "team_name_home").String)
		}
		// survivors of existing keep relative order after the new rows
		assert.Equal(t, []string{"UNC", "Duke", "Kansas"}, homes)
	})

	t.Run("new rows win on conflict", func(t *testing.T) {
		newRows := mustTable(t, cols, []string{"2025-11-11", "Kansas", "Iowa", "79"})

		got := Append(existing, newRows, key...)

		require.Equal(t, 3, got.Len())
		assert.Equal(t, "79", got.Get(0, "team_score_home").String)
	})

	t.Run("null key rows are discarded", func(t *testing.T) {
		newRows := New(cols...)
		require.NoError(t, newRows.AddRow(Value("2025-11-12"), Null(), Value("Iowa"), Value("60")))
		require.NoError(t, newRows.AddRow(Value("2025-11-12"), Value(" "), Value("Iowa"), Value("60")))
		require.NoError(t, newRows.AddValues("2025-11-12", "Ohio", "Iowa", "61"))

		got := Append(existing, newRows, key...)

		assert.Equal(t, 4, got.Len())
		assert.Equal(t, "Ohio", got.Get(0, "team_name_home").String)
	})

	t.Run("empty existing", func(t *testing.T) {
		newRows := mustTable(t, cols,
			[]string{"2025-11-12", "Ohio", "Iowa", "61"},
			[]string{"2025-11-12", "Ohio", "Iowa", "62"},
		)

		got := Append(Table{}, newRows, key...)

		require.Equal(t, 1, got.Len())
		assert.Equal(t, "61", got.Get(0, "team_score_home").String)
	})
}

func TestSelect(t *testing.T) {
	src := mustTable(t, []string{"Rank", "Team", "2025", "Last 3"},
		[]string{"1", "Duke", "90.1", "88.0"},
	)

	got, err := src.Select([2]string{"Team", "Team"}, [2]string{"ppg", "2025"}, [2]string{"ppg.Home", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"Team", "ppg", "ppg.Home"}, got.Columns)
	assert.Equal(t, "90.1", got.Get(0, "ppg").String)
	assert.False(t, got.Get(0, "ppg.Home").Valid)

	_, err = src.Select([2]string{"x", "Away"})
	assert.Error(t, err)
}

func TestDistinctAndMissing(t *testing.T) {
	tbl := New("date")
	require.NoError(t, tbl.AddValues("2025-11-11"))
	require.NoError(t, tbl.AddRow(Null()))
	require.NoError(t, tbl.AddValues("2025-11-10"))
	require.NoError(t, tbl.AddValues("2025-11-11"))

	assert.Equal(t, []string{"2025-11-10", "2025-11-11"}, tbl.Distinct("date"))
	assert.Equal(t, []string{"reb"}, tbl.Missing("date", "reb"))
	assert.True(t, tbl.Has("date"))
	assert.Error(t, tbl.AddValues("a", "b"))
}
