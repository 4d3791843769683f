package background

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/startpage/pkg/plugin"
)

var _ Store = (*SQLiteStore)(nil)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create backgrounds table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`CREATE TABLE backgrounds (
					id         TEXT PRIMARY KEY,
					name       TEXT NOT NULL,
					type       TEXT NOT NULL,
					size       INTEGER NOT NULL,
					hash       TEXT NOT NULL,
					created_at TEXT NOT NULL,
					data       BLOB NOT NULL
				)`)
				return err
			},
		},
	}
}

// SQLiteStore keeps backgrounds as BLOBs next to the rest of the start page
// state.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a store over db. The backgrounds migrations must
// have been applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) Save(ctx context.Context, u Upload) (Record, error) {
	rec, err := newRecord(u, s.now())
	if err != nil {
		return Record{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO backgrounds (id, name, type, size, hash, created_at, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Type, rec.Size, rec.Hash, rec.CreatedAt.Format(time.RFC3339Nano), u.Data,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert background: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, size, hash, created_at FROM backgrounds ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list backgrounds: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) URL(ctx context.Context, id string) (string, bool) {
	var found int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM backgrounds WHERE id = ?`, id).Scan(&found)
	if err != nil {
		return "", false
	}
	return ContentURL(id), true
}

func (s *SQLiteStore) Open(ctx context.Context, id string) (Record, []byte, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, size, hash, created_at, data FROM backgrounds WHERE id = ?`, id)
	var (
		rec     Record
		created string
		data    []byte
	)
	err := row.Scan(&rec.ID, &rec.Name, &rec.Type, &rec.Size, &rec.Hash, &created, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, nil, ErrNotFound
	}
	if err != nil {
		return Record{}, nil, fmt.Errorf("open background: %w", err)
	}
	if err := finishRecord(&rec, created); err != nil {
		return Record{}, nil, err
	}
	return rec, data, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM backgrounds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete background: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		rec     Record
		created string
	)
	if err := rows.Scan(&rec.ID, &rec.Name, &rec.Type, &rec.Size, &rec.Hash, &created); err != nil {
		return Record{}, fmt.Errorf("scan background: %w", err)
	}
	return rec, finishRecord(&rec, created)
}

func finishRecord(rec *Record, created string) error {
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return fmt.Errorf("parse created_at of %s: %w", rec.ID, err)
	}
	rec.CreatedAt = t
	rec.URL = ContentURL(rec.ID)
	return nil
}
