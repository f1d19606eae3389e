// database.go - SQLite-Store fuer Tokenizer-Checkpoints
// Enthält: Store struct, Open, Close, init, Commit, Load, Checkpoints, Prune

// Package sqlite speichert Checkpoints eines Tokenizers in einer SQLite-Datenbank.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite-Treiber registrieren

	"github.com/ollama/subword/store"
)

// currentSchemaVersion wird bei Schema-Änderungen erhöht.
const currentSchemaVersion = 1

// Store umhüllt die SQLite-Verbindung. SQLite serialisiert Schreiber selbst,
// WAL erlaubt parallele Leser.
type Store struct {
	conn *sql.DB
}

var _ store.Store = (*Store)(nil)

// Checkpoint beschreibt einen gespeicherten Checkpoint.
type Checkpoint struct {
	ID      uuid.UUID
	Created time.Time
	Blobs   int
}

// Open öffnet oder erstellt die Datenbank unter path.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.init(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	return s, nil
}

// Close schließt die Datenbankverbindung
func (s *Store) Close() error {
	_, _ = s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
	return s.conn.Close()
}

func (s *Store) init() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		schema_version INTEGER NOT NULL DEFAULT %d
	);

	INSERT OR IGNORE INTO meta (id) VALUES (1);

	CREATE TABLE IF NOT EXISTS checkpoints (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL -- Unix-Millisekunden
	);

	CREATE TABLE IF NOT EXISTS blobs (
		checkpoint_seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		data BLOB NOT NULL,
		PRIMARY KEY (checkpoint_seq, name),
		FOREIGN KEY (checkpoint_seq) REFERENCES checkpoints(seq) ON DELETE CASCADE
	);
	`, currentSchemaVersion)

	if _, err := s.conn.Exec(schema); err != nil {
		return err
	}

	var version int
	if err := s.conn.QueryRow("SELECT schema_version FROM meta WHERE id = 1").Scan(&version); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	return nil
}

// Commit schreibt alle Blobs eines Checkpoints in einer Transaktion.
func (s *Store) Commit(ctx context.Context, blobs map[string][]byte) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "INSERT INTO checkpoints (id, created_at) VALUES (?, ?)", id.String(), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, name := range slices.Sorted(maps.Keys(blobs)) {
		if _, err := tx.ExecContext(ctx, "INSERT INTO blobs (checkpoint_seq, name, data) VALUES (?, ?, ?)", seq, name, blobs[name]); err != nil {
			return fmt.Errorf("insert blob %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	slog.Debug("checkpoint committed", "id", id, "blobs", len(blobs))
	return nil
}

// Load liest einen Blob des neuesten Checkpoints.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.conn.QueryRowContext(ctx, `
		SELECT data FROM blobs
		WHERE name = ? AND checkpoint_seq = (SELECT MAX(seq) FROM checkpoints)
	`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load blob %s: %w", name, err)
	}
	return data, nil
}

// Checkpoints liefert alle Checkpoints, ältester zuerst.
func (s *Store) Checkpoints(ctx context.Context) ([]Checkpoint, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT c.id, c.created_at, COUNT(b.name)
		FROM checkpoints c LEFT JOIN blobs b ON b.checkpoint_seq = c.seq
		GROUP BY c.seq
		ORDER BY c.seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		var c Checkpoint
		var id string
		var created int64
		if err := rows.Scan(&id, &created, &c.Blobs); err != nil {
			return nil, err
		}
		c.Created = time.UnixMilli(created)
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("checkpoint id %q: %w", id, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Prune löscht alle bis auf die keep neuesten Checkpoints.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, errors.New("prune: keep must be at least 1")
	}
	res, err := s.conn.ExecContext(ctx, `
		DELETE FROM checkpoints
		WHERE seq NOT IN (SELECT seq FROM checkpoints ORDER BY seq DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune checkpoints: %w", err)
	}
	return res.RowsAffected()
}
