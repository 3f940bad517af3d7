package blob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/S4DIB/startup-world-cup/internal/storage"
)

// SQLStore keeps blobs in the `blobs` table.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore migrates the schema for dbType and wraps db.
func NewSQLStore(db *sql.DB, dbType string) (*SQLStore, error) {
	driver := storage.Normalize(dbType)
	if err := storage.Migrate(db, driver); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, driver: driver}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT data FROM blobs WHERE blob_key = ?`), key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sql store: get %s: %w", key, err)
	}
	return data, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, data []byte) error {
	var query string
	switch s.driver {
	case storage.DriverMySQL:
		query = `INSERT INTO blobs (blob_key, data, updated_at) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)`
	default:
		query = s.bind(`INSERT INTO blobs (blob_key, data, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(blob_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	}
	if data == nil {
		data = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, query, key, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("sql store: put %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM blobs WHERE blob_key = ?`), key); err != nil {
		return fmt.Errorf("sql store: delete %s: %w", key, err)
	}
	return nil
}

// bind rewrites ? placeholders into $n for postgres.
func (s *SQLStore) bind(query string) string {
	if s.driver != storage.DriverPostgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
