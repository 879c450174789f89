package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ashureev/feedback-coach/internal/domain"
	"github.com/ashureev/feedback-coach/internal/shared"
)

const (
	writeRetries   = 3
	writeBaseDelay = 100 * time.Millisecond
)

// SQLiteStore keeps one row per session with the record stored as JSON.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes writers to avoid SQLITE_BUSY
	opts    options
}

// NewSQLite opens (or creates) the database at dbPath. A read-only store
// requires the database to exist and leaves the schema alone.
func NewSQLite(dbPath string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)
	if o.readOnly {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, opts: o}
	if o.readOnly {
		return s, nil
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// List returns all sessions, newest first. Rows that fail to decode are
// skipped.
func (s *SQLiteStore) List(ctx context.Context) []domain.Session {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM sessions ORDER BY created_at DESC, rowid DESC`)
	s.opts.metrics.ObserveStore("list", err)
	if err != nil {
		s.opts.logger.Error("Error reading sessions", "error", err)
		return []domain.Session{}
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			s.opts.logger.Error("Error scanning session row", "error", err)
			continue
		}
		var session domain.Session
		if err := json.Unmarshal([]byte(payload), &session); err != nil {
			s.opts.logger.Warn("Skipping undecodable session", "id", id, "error", err)
			continue
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		s.opts.logger.Error("Error iterating sessions", "error", err)
	}
	return sessions
}

// Append inserts a new session record.
func (s *SQLiteStore) Append(ctx context.Context, draft domain.SessionDraft) (domain.Session, error) {
	session := domain.NewSession(s.opts.newID(), s.opts.now(), draft)
	if s.opts.readOnly {
		return session, ErrReadOnly
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return session, fmt.Errorf("encode session: %w", err)
	}

	err = s.withRetry(ctx, "append", func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO sessions (id, created_at, payload) VALUES (?, ?, ?)`,
			session.ID, session.Timestamp.UnixNano(), string(payload))
		return err
	})
	s.opts.metrics.ObserveStore("append", err)
	if err != nil {
		return session, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Clear deletes every session.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if s.opts.readOnly {
		return ErrReadOnly
	}
	err := s.withRetry(ctx, "clear", func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM sessions`)
		return err
	})
	s.opts.metrics.ObserveStore("clear", err)
	if err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	return nil
}

// withRetry runs fn with exponential backoff on SQLITE_BUSY: 100ms, 200ms.
func (s *SQLiteStore) withRetry(ctx context.Context, op string, fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var err error
	for i := 0; i < writeRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == writeRetries-1 {
			break
		}
		delay := writeBaseDelay * time.Duration(1<<i)
		s.opts.logger.Debug("Session write hit SQLITE_BUSY, retrying",
			"op", op,
			"attempt", i+1,
			"delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

var _ SessionStore = (*SQLiteStore)(nil)
