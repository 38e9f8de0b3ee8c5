package scenario

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epimodel/sirsim/sim"
)

func sampleRows() []Row {
	return []Row{
		{Scenario: 0, Record: sim.Record{Kind: sim.ReportIncidence, Time: 0, PersonID: 4, Status: sim.Infectious}},
		{Scenario: 1, Record: sim.Record{Kind: sim.ReportIncidence, Time: 0, PersonID: 9, Status: sim.Infectious}},
		{Scenario: 0, Record: sim.Record{Kind: sim.ReportIncidence, Time: 1.25, PersonID: 17, Status: sim.Infectious}},
		{Scenario: 1, Record: sim.Record{Kind: sim.ReportDeath, Time: 3.5, PersonID: 9, Status: sim.Dead}},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVTables_WritesSingleHeaderAndTaggedRows(t *testing.T) {
	dir := t.TempDir()
	tables, err := CreateCSVTables(dir)
	require.NoError(t, err)

	for _, r := range sampleRows() {
		require.NoError(t, tables.WriteRow(r))
	}

	// Nothing is visible before commit.
	_, err = os.Stat(filepath.Join(dir, IncidenceFile))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, tables.Commit())

	assert.Equal(t, [][]string{
		{"scenario", "time", "person_id"},
		{"0", "0", "4"},
		{"1", "0", "9"},
		{"0", "1.25", "17"},
	}, readCSV(t, filepath.Join(dir, IncidenceFile)))
	assert.Equal(t, [][]string{
		{"scenario", "time", "person_id"},
		{"1", "3.5", "9"},
	}, readCSV(t, filepath.Join(dir, DeathFile)))
}

func TestCSVTables_EmptyRunHasHeadersOnly(t *testing.T) {
	dir := t.TempDir()
	tables, err := CreateCSVTables(dir)
	require.NoError(t, err)
	require.NoError(t, tables.Commit())

	assert.Equal(t, [][]string{{"scenario", "time", "person_id"}}, readCSV(t, filepath.Join(dir, IncidenceFile)))
	assert.Equal(t, [][]string{{"scenario", "time", "person_id"}}, readCSV(t, filepath.Join(dir, DeathFile)))
}

func TestCSVTables_CleanupLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	tables, err := CreateCSVTables(dir)
	require.NoError(t, err)
	require.NoError(t, tables.WriteRow(sampleRows()[0]))

	require.NoError(t, tables.Cleanup())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCSVTables_MissingDirectoryFails(t *testing.T) {
	_, err := CreateCSVTables(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLiteTables_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	tables, err := OpenSQLiteTables(path)
	require.NoError(t, err)

	for _, r := range sampleRows() {
		require.NoError(t, tables.WriteRow(r))
	}
	require.NoError(t, tables.Commit())
	// A second commit is a no-op.
	require.NoError(t, tables.Commit())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 3, countRows(t, db, "incidence"))
	assert.Equal(t, 1, countRows(t, db, "death"))

	var scenario, person int
	var at float64
	require.NoError(t, db.QueryRow("SELECT scenario, time, person_id FROM death").Scan(&scenario, &at, &person))
	assert.Equal(t, 1, scenario)
	assert.Equal(t, 3.5, at)
	assert.Equal(t, 9, person)
}

func TestSQLiteTables_NewRunReplacesPreviousRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")

	first, err := OpenSQLiteTables(path)
	require.NoError(t, err)
	for _, r := range sampleRows() {
		require.NoError(t, first.WriteRow(r))
	}
	require.NoError(t, first.Commit())

	second, err := OpenSQLiteTables(path)
	require.NoError(t, err)
	require.NoError(t, second.WriteRow(sampleRows()[0]))
	require.NoError(t, second.Commit())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 1, countRows(t, db, "incidence"))
	assert.Equal(t, 0, countRows(t, db, "death"))
}

func TestSQLiteTables_CleanupRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	tables, err := OpenSQLiteTables(path)
	require.NoError(t, err)
	require.NoError(t, tables.WriteRow(sampleRows()[0]))
	require.NoError(t, tables.Cleanup())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 0, countRows(t, db, "incidence"))
}

func TestMultiTables_FansOut(t *testing.T) {
	a, b := newMemTables(), newMemTables()
	multi := MultiTables{a, b}

	for _, r := range sampleRows() {
		require.NoError(t, multi.WriteRow(r))
	}
	require.NoError(t, multi.Commit())

	assert.Equal(t, a.rows, b.rows)
	assert.Equal(t, 4, a.total)
	assert.True(t, a.committed)
	assert.True(t, b.committed)
}

func TestMultiTables_StopsAtFirstWriteError(t *testing.T) {
	failing := newMemTables()
	failing.failAfter = 1
	failing.total = 1
	after := newMemTables()

	err := MultiTables{failing, after}.WriteRow(sampleRows()[0])

	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 0, after.total)
}
