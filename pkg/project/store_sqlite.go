package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jlrickert/contammap/pkg/mag"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps assignments in a SQLite table, one row per bin and
// contig. Row order is preserved through an explicit sequence column.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database at path. Call Init before
// use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Name() string { return string(StoreSQLite) }

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]mag.AssignmentRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var saved int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saves`).Scan(&saved); err != nil {
		return nil, fmt.Errorf("read assignments: %w", err)
	}
	if saved == 0 {
		return nil, fmt.Errorf("read assignments: %w", os.ErrNotExist)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT bin_id, contig_id, assignment, completeness, contamination, quality
		FROM assignments
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("read assignments: %w", err)
	}
	defer rows.Close()

	var out []mag.AssignmentRecord
	for rows.Next() {
		var (
			bin, contig, code string
			comp, cont        sql.NullFloat64
			quality           sql.NullString
		)
		if err := rows.Scan(&bin, &contig, &code, &comp, &cont, &quality); err != nil {
			return nil, fmt.Errorf("read assignments: %w", err)
		}
		a, err := mag.ParseAssignment(code)
		if err != nil {
			return nil, mag.NewRecordError(s.path, len(out)+1, "assignment", code, err)
		}
		rec := mag.AssignmentRecord{BinID: mag.BinID(bin), ContigID: mag.ContigID(contig), Assignment: a}
		if comp.Valid {
			v := comp.Float64
			rec.Completeness = &v
		}
		if cont.Valid {
			v := cont.Float64
			rec.Contamination = &v
		}
		if quality.Valid && quality.String != "" {
			q, err := mag.ParseQuality(quality.String)
			if err != nil {
				return nil, mag.NewRecordError(s.path, len(out)+1, "quality", quality.String, err)
			}
			rec.Quality = &q
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read assignments: %w", err)
	}
	return out, nil
}

// Save replaces every row inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, recs []mag.AssignmentRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write assignments: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments`); err != nil {
		return fmt.Errorf("write assignments: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assignments (seq, bin_id, contig_id, assignment, completeness, contamination, quality)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write assignments: %w", err)
	}
	defer stmt.Close()

	for i, r := range recs {
		var quality any
		if r.Quality != nil {
			quality = r.Quality.Code()
		}
		if _, err := stmt.ExecContext(ctx,
			i, string(r.BinID), string(r.ContigID), r.Assignment.Code(),
			nullable(r.Completeness), nullable(r.Contamination), quality,
		); err != nil {
			return fmt.Errorf("write assignments: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO saves (id, n_rows) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET n_rows = excluded.n_rows
	`, len(recs)); err != nil {
		return fmt.Errorf("write assignments: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assignments (
			seq INTEGER PRIMARY KEY,
			bin_id TEXT NOT NULL,
			contig_id TEXT NOT NULL,
			assignment TEXT NOT NULL,
			completeness REAL,
			contamination REAL,
			quality TEXT
		);
		CREATE TABLE IF NOT EXISTS saves (
			id INTEGER PRIMARY KEY,
			n_rows INTEGER NOT NULL
		);
	`)
	return err
}
