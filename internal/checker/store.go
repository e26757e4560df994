/*
 * Copyright 2025 Hewlett Packard Enterprise Development LP
 * Other additional copyright holders may be indicated within.
 *
 * The entirety of this work is licensed under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 *
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package checker

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS check_results (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	sweep        INTEGER NOT NULL,
	target       TEXT NOT NULL,
	address      TEXT NOT NULL,
	port         TEXT NOT NULL,
	subnqn       TEXT NOT NULL,
	discoverable INTEGER NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	duration_ms  INTEGER NOT NULL,
	checked_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_check_results_target ON check_results(target, id);
CREATE INDEX IF NOT EXISTS idx_check_results_sweep ON check_results(sweep);
`

// Store keeps check history in a SQLite database
type Store struct {
	db *sql.DB
}

// OpenStore opens, or creates, the history database at path
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("could not create database directory for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("could not open database %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not set synchronous pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not set busy_timeout pragma: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not verify database connection: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSweep writes the results of one sweep in a single transaction
func (s *Store) RecordSweep(sweep int64, results []Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO check_results
		(sweep, target, address, port, subnqn, discoverable, error, duration_ms, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("could not prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, result := range results {
		_, err := stmt.Exec(sweep, result.Target, result.Address, result.Port, result.SubNQN,
			result.Discoverable, result.Error, result.Duration.Milliseconds(), result.CheckedAt)
		if err != nil {
			return fmt.Errorf("could not insert result for target %s: %w", result.Target, err)
		}
	}

	return tx.Commit()
}

// LastResults returns the results of the most recent recorded sweep
func (s *Store) LastResults() ([]Result, error) {
	rows, err := s.db.Query(`SELECT target, address, port, subnqn, discoverable, error, duration_ms, checked_at
		FROM check_results
		WHERE sweep = (SELECT MAX(sweep) FROM check_results)
		ORDER BY target`)
	if err != nil {
		return nil, fmt.Errorf("could not query last results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// Recent returns the latest results for one target, newest first
func (s *Store) Recent(target string, limit int) ([]Result, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := s.db.Query(`SELECT target, address, port, subnqn, discoverable, error, duration_ms, checked_at
		FROM check_results
		WHERE target = ?
		ORDER BY id DESC
		LIMIT ?`, target, limit)
	if err != nil {
		return nil, fmt.Errorf("could not query results for target %s: %w", target, err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	results := []Result{}

	for rows.Next() {
		var result Result
		var durationMS int64
		var checkedAt time.Time

		if err := rows.Scan(&result.Target, &result.Address, &result.Port, &result.SubNQN,
			&result.Discoverable, &result.Error, &durationMS, &checkedAt); err != nil {
			return nil, fmt.Errorf("could not scan result row: %w", err)
		}

		result.Duration = time.Duration(durationMS) * time.Millisecond
		result.CheckedAt = checkedAt

		results = append(results, result)
	}

	return results, rows.Err()
}
