// Package store provides persistence for completed practice sessions.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/feedback-coach/internal/domain"
	"github.com/ashureev/feedback-coach/internal/observability/metrics"
)

// SessionStore is an append-only log of completed sessions, newest first.
type SessionStore interface {
	// List returns every session, most recent first. A missing, empty or
	// unreadable backing store yields an empty slice, never an error.
	List(ctx context.Context) []domain.Session

	// Append assigns an ID and timestamp, prepends the record and persists
	// the full log. The stored record is returned even if the write failed.
	Append(ctx context.Context, draft domain.SessionDraft) (domain.Session, error)

	// Clear removes every session. There is no per-record delete.
	Clear(ctx context.Context) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ErrReadOnly is returned by writes on a store opened with ReadOnly.
var ErrReadOnly = errors.New("store: opened read-only")

type options struct {
	readOnly bool
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a store.
type Option func(*options)

// ReadOnly opens an existing store without creating directories, files or
// schema. Append and Clear fail with ErrReadOnly.
func ReadOnly() Option {
	return func(o *options) { o.readOnly = true }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides session ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records store operations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open returns the store selected by driver: "file" (JSON array at
// filePath) or "sqlite" (database at dbPath).
func Open(driver, filePath, dbPath string, opts ...Option) (SessionStore, error) {
	if driver == DriverSQLite {
		return NewSQLite(dbPath, opts...)
	}
	return NewFileStore(filePath, opts...)
}

// Store drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)
