// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package resultstore keeps run results in a SQLite database.
package resultstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3" // driver

	"boardfarm/errors"
	"boardfarm/runner"
)

//go:embed schema.sql
var schemaSQL string

// Store stores run results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	for _, q := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		schemaSQL,
	} {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to initialize database %s", path)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores res. Saving a run again replaces it.
func (s *Store) Save(ctx context.Context, res *runner.Result) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if retErr != nil {
			tx.Rollback()
		}
	}()

	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, res.ID); err != nil {
		return errors.Wrap(err, "failed to delete old run")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, start_time, end_time, passed, aborted, error) VALUES (?, ?, ?, ?, ?, ?)`,
		res.ID, res.Start.UnixNano(), res.End.UnixNano(), res.Passed(), res.Aborted, errMsg); err != nil {
		return errors.Wrap(err, "failed to insert run")
	}

	for _, rec := range res.Records {
		ran, err := json.Marshal(rec.Ran)
		if err != nil {
			return errors.Wrapf(err, "failed to encode hooks of %s", rec.Name)
		}
		failed, err := json.Marshal(rec.Failed)
		if err != nil {
			return errors.Wrapf(err, "failed to encode failures of %s", rec.Name)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (run_id, ord, name, ran, failed) VALUES (?, ?, ?, ?, ?)`,
			res.ID, rec.Order, rec.Name, string(ran), string(failed)); err != nil {
			return errors.Wrapf(err, "failed to insert record of %s", rec.Name)
		}
	}

	for i, f := range res.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO failures (run_id, seq, time, task, hook, message, stack) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			res.ID, i, f.Time.UnixNano(), f.Task, f.Hook, f.Err.Error(), f.Stack); err != nil {
			return errors.Wrapf(err, "failed to insert failure of %s - %s", f.Task, f.Hook)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}
	return nil
}

// Run is a stored run.
type Run struct {
	ID      string
	Start   time.Time
	End     time.Time
	Passed  bool
	Aborted bool
	Err     string
	Records []*Record
}

// Record is a stored per-task record.
type Record struct {
	Name   string
	Order  int
	Ran    []string
	Failed map[string]string
}

// Failure is a stored hook failure.
type Failure struct {
	Time    time.Time
	Task    string
	Hook    string
	Message string
	Stack   string
}

// Runs returns up to limit runs, most recent first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]*Run, error) {
	q := `SELECT id, start_time, end_time, passed, aborted, error FROM runs ORDER BY start_time DESC`
	var args []interface{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		var start, end int64
		if err := rows.Scan(&r.ID, &start, &end, &r.Passed, &r.Aborted, &r.Err); err != nil {
			return nil, errors.Wrap(err, "failed to read run")
		}
		r.Start, r.End = time.Unix(0, start), time.Unix(0, end)
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read runs")
	}

	for _, r := range runs {
		if r.Records, err = s.records(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) records(ctx context.Context, runID string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, ord, ran, failed FROM records WHERE run_id = ? ORDER BY ord`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query records")
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		var rec Record
		var ran, failed string
		if err := rows.Scan(&rec.Name, &rec.Order, &ran, &failed); err != nil {
			return nil, errors.Wrap(err, "failed to read record")
		}
		if err := json.Unmarshal([]byte(ran), &rec.Ran); err != nil {
			return nil, errors.Wrapf(err, "bad hooks of %s", rec.Name)
		}
		if err := json.Unmarshal([]byte(failed), &rec.Failed); err != nil {
			return nil, errors.Wrapf(err, "bad failures of %s", rec.Name)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// Failures returns the failures of a run in the order they happened.
func (s *Store) Failures(ctx context.Context, runID string) ([]*Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, task, hook, message, stack FROM failures WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query failures")
	}
	defer rows.Close()

	var fs []*Failure
	for rows.Next() {
		var f Failure
		var ts int64
		if err := rows.Scan(&ts, &f.Task, &f.Hook, &f.Message, &f.Stack); err != nil {
			return nil, errors.Wrap(err, "failed to read failure")
		}
		f.Time = time.Unix(0, ts)
		fs = append(fs, &f)
	}
	return fs, rows.Err()
}
