// Package store implementa el Record Store sobre SQLite (pure Go, sin CGo).
//
// Estrategia:
//   - Una sola tabla `documents`: clave → documento JSON opaco. El tracker
//     es el dueño del layout de claves; este paquete no interpreta nada.
//   - Last-write-wins vía UPSERT, sin transacciones multi-clave: los runs
//     son secuenciales y cada documento se escribe completo.
//   - Prune automático al arrancar: documentos sin tocar en 90 días.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/propbot/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    key        TEXT PRIMARY KEY,
    body       TEXT     NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at DESC);
`

const retention = 90 * 24 * time.Hour

// SQLiteStore implementa ports.RecordStore sobre una base local.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base en la ruta dada, aplica el schema
// y limpia documentos antiguos.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// Get deserializa el documento de la clave en out. found=false si no existe.
func (s *SQLiteStore) Get(ctx context.Context, key string, out any) (bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE key = ?`, key,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store.Get %q: %w: %w", key, ports.ErrStoreUnavailable, err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return false, fmt.Errorf("store.Get %q: decode: %w", key, err)
	}
	return true, nil
}

// Put serializa doc y lo escribe bajo la clave, pisando lo anterior.
func (s *SQLiteStore) Put(ctx context.Context, key string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store.Put %q: encode: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			body       = excluded.body,
			updated_at = excluded.updated_at`,
		key, string(body), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store.Put %q: %w: %w", key, ports.ErrStoreUnavailable, err)
	}
	return nil
}

// List devuelve las claves con el prefijo dado, ordenadas.
func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM documents WHERE key LIKE ? || '%' ORDER BY key`, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("store.List %q: %w: %w", prefix, ports.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("store.List %q: scan: %w", prefix, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store.List %q: %w: %w", prefix, ports.ErrStoreUnavailable, err)
	}
	return keys, nil
}

// Close cierra la base.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE updated_at < ?`, cutoff,
	)
	if err != nil {
		slog.Warn("store prune failed", "err", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("store pruned old documents", "count", n)
	}
}
