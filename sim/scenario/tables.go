package scenario

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/renameio/v2"
	_ "modernc.org/sqlite"

	"github.com/epimodel/sirsim/sim"
)

// Output file names inside the output directory.
const (
	IncidenceFile = "incidence_report.csv"
	DeathFile     = "death_report.csv"
)

// csvHeader is written once per file regardless of scenario count.
var csvHeader = []string{"scenario", "time", "person_id"}

// Row is a report record tagged with the index of the scenario that produced it.
type Row struct {
	Scenario int
	sim.Record
}

// Tables receives scenario-tagged rows. Rows are routed to a table by Kind.
// Implementations are written to from a single goroutine only.
type Tables interface {
	WriteRow(Row) error
	// Commit makes everything written so far durable and visible.
	Commit() error
	// Cleanup discards uncommitted output. It is a no-op after Commit.
	Cleanup() error
}

// === CSV ===

// CSVTables writes the incidence and death tables as CSV files. Files are
// written to pending temporaries and atomically replaced on Commit.
type CSVTables struct {
	files   map[sim.ReportKind]*renameio.PendingFile
	writers map[sim.ReportKind]*csv.Writer
}

// CreateCSVTables creates both pending CSV files in dir and writes their headers.
func CreateCSVTables(dir string) (*CSVTables, error) {
	t := &CSVTables{
		files:   make(map[sim.ReportKind]*renameio.PendingFile),
		writers: make(map[sim.ReportKind]*csv.Writer),
	}
	names := map[sim.ReportKind]string{
		sim.ReportIncidence: IncidenceFile,
		sim.ReportDeath:     DeathFile,
	}
	for _, kind := range []sim.ReportKind{sim.ReportIncidence, sim.ReportDeath} {
		f, err := renameio.NewPendingFile(filepath.Join(dir, names[kind]))
		if err != nil {
			_ = t.Cleanup()
			return nil, fmt.Errorf("create %s: %w", names[kind], err)
		}
		t.files[kind] = f
		w := csv.NewWriter(f)
		if err := w.Write(csvHeader); err != nil {
			_ = t.Cleanup()
			return nil, fmt.Errorf("write %s header: %w", names[kind], err)
		}
		t.writers[kind] = w
	}
	return t, nil
}

// WriteRow appends one row to the table of its kind.
func (t *CSVTables) WriteRow(r Row) error {
	w, ok := t.writers[r.Kind]
	if !ok {
		return fmt.Errorf("no table for report kind %s", r.Kind)
	}
	return w.Write([]string{
		strconv.Itoa(r.Scenario),
		strconv.FormatFloat(r.Time, 'g', -1, 64),
		strconv.Itoa(int(r.PersonID)),
	})
}

// Commit flushes both files and atomically moves them into place.
func (t *CSVTables) Commit() error {
	for kind, w := range t.writers {
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("flush %s table: %w", kind, err)
		}
	}
	for kind, f := range t.files {
		if err := f.CloseAtomicallyReplace(); err != nil {
			return fmt.Errorf("replace %s table: %w", kind, err)
		}
	}
	return nil
}

// Cleanup removes any pending temporaries that were not committed.
func (t *CSVTables) Cleanup() error {
	var errs []error
	for _, f := range t.files {
		errs = append(errs, f.Cleanup())
	}
	return errors.Join(errs...)
}

// === SQLite ===

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS incidence (
	scenario  INTEGER NOT NULL,
	time      REAL NOT NULL,
	person_id INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_incidence_scenario ON incidence(scenario, time);

CREATE TABLE IF NOT EXISTS death (
	scenario  INTEGER NOT NULL,
	time      REAL NOT NULL,
	person_id INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_death_scenario ON death(scenario, time);
`

// SQLiteTables writes the incidence and death tables into a SQLite database.
// All rows of a run go into one transaction; previous contents are replaced.
type SQLiteTables struct {
	db    *sql.DB
	tx    *sql.Tx
	stmts map[sim.ReportKind]*sql.Stmt
	done  bool
}

// OpenSQLiteTables opens (or creates) the database at path and begins the run transaction.
func OpenSQLiteTables(path string) (*SQLiteTables, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("begin sqlite transaction: %w", err)
	}
	t := &SQLiteTables{db: db, tx: tx, stmts: make(map[sim.ReportKind]*sql.Stmt)}
	for kind, table := range map[sim.ReportKind]string{sim.ReportIncidence: "incidence", sim.ReportDeath: "death"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			_ = t.Cleanup()
			return nil, fmt.Errorf("clear %s table: %w", table, err)
		}
		stmt, err := tx.Prepare("INSERT INTO " + table + " (scenario, time, person_id) VALUES (?, ?, ?)")
		if err != nil {
			_ = t.Cleanup()
			return nil, fmt.Errorf("prepare %s insert: %w", table, err)
		}
		t.stmts[kind] = stmt
	}
	return t, nil
}

// WriteRow inserts one row into the table of its kind.
func (t *SQLiteTables) WriteRow(r Row) error {
	stmt, ok := t.stmts[r.Kind]
	if !ok {
		return fmt.Errorf("no table for report kind %s", r.Kind)
	}
	_, err := stmt.Exec(r.Scenario, r.Time, int(r.PersonID))
	return err
}

// Commit commits the run transaction and closes the database.
func (t *SQLiteTables) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		t.db.Close()
		return fmt.Errorf("commit sqlite transaction: %w", err)
	}
	return t.db.Close()
}

// Cleanup rolls back the run transaction if it was not committed.
func (t *SQLiteTables) Cleanup() error {
	if t.done {
		return nil
	}
	t.done = true
	return errors.Join(t.tx.Rollback(), t.db.Close())
}

// === Fan-out ===

// MultiTables writes every row to each of its tables in order.
type MultiTables []Tables

func (m MultiTables) WriteRow(r Row) error {
	for _, t := range m {
		if err := t.WriteRow(r); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiTables) Commit() error {
	var errs []error
	for _, t := range m {
		errs = append(errs, t.Commit())
	}
	return errors.Join(errs...)
}

func (m MultiTables) Cleanup() error {
	var errs []error
	for _, t := range m {
		errs = append(errs, t.Cleanup())
	}
	return errors.Join(errs...)
}
