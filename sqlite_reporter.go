package tbibm

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteReporter writes each tick as a row into a single status table,
// adapted from the teacher's SQLiteLogger table-per-record-kind approach
// down to the one record kind this reporter tracks.
type SQLiteReporter struct {
	path       string
	tableName  string
	db         *sql.DB
}

func NewSQLiteReporter(path string) *SQLiteReporter {
	return &SQLiteReporter{path: path, tableName: "Status"}
}

func (r *SQLiteReporter) SetBasePath(path string) {
	r.path = path
}

func openSQLiteDB(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
}

func (r *SQLiteReporter) Init() error {
	db, err := openSQLiteDB(r.path)
	if err != nil {
		return err
	}
	r.db = db
	stmt := fmt.Sprintf(`create table if not exists %s (
		id integer not null primary key,
		runID text,
		tick real,
		live int,
		deaths int,
		emigrations int,
		onsets int,
		notifications int
	);`, r.tableName)
	_, err = db.Exec(stmt)
	if err != nil {
		return fmt.Errorf("%q: %s", err, stmt)
	}
	return nil
}

func (r *SQLiteReporter) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteReporter) WriteStatus(c <-chan StatusRecord) {
	insert := fmt.Sprintf(
		"insert into %s(runID, tick, live, deaths, emigrations, onsets, notifications) values(?, ?, ?, ?, ?, ?, ?)",
		r.tableName)
	tx, err := r.db.Begin()
	if err != nil {
		return
	}
	stmt, err := tx.Prepare(insert)
	if err != nil {
		tx.Rollback()
		return
	}
	defer stmt.Close()
	for rec := range c {
		// TODO: log error
		stmt.Exec(rec.RunID.String(), rec.Tick, rec.Live, rec.Deaths,
			rec.Emigrations, rec.Onsets, rec.Notifications)
	}
	tx.Commit()
}
