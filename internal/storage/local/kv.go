package local

import (
	"context"
	"database/sql"
	"errors"
)

// The sqlite schema is a single kv table; each entity's whole collection is
// one row. Keys are versioned so a future shape change can migrate data
// without clobbering the old rows.

func listKey(entity string) string {
	return keyPrefix + entity
}

func (e *Engine) readList(ctx context.Context, entity string) ([]byte, error) {
	var value []byte
	err := e.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, listKey(entity)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (e *Engine) writeList(ctx context.Context, entity string, data []byte) error {
	_, err := e.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		listKey(entity), data)
	return err
}
