package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ashureev/feedback-coach/internal/domain"
)

// FileStore keeps the session log as a single JSON array on disk. Every
// append and clear rewrites the whole file; mu serializes those
// read-modify-write cycles so concurrent requests cannot lose updates.
type FileStore struct {
	path string
	mu   sync.Mutex
	opts options
}

// NewFileStore creates the data directory and an empty log if needed.
// A read-only store touches nothing on disk; a missing log reads as empty.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store: sessions file path is required")
	}
	s := &FileStore{path: path, opts: buildOptions(opts)}
	if s.opts.readOnly {
		return s, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.write([]domain.Session{}); err != nil {
			return nil, fmt.Errorf("initialize sessions file: %w", err)
		}
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// read must be called with mu held.
func (s *FileStore) read() ([]domain.Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	if len(data) == 0 {
		return []domain.Session{}, nil
	}
	var sessions []domain.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return sessions, nil
}

// write must be called with mu held. The file is replaced via rename so a
// crash mid-write leaves the previous log intact.
func (s *FileStore) write(sessions []domain.Session) error {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".sessions-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace sessions file: %w", err)
	}
	return nil
}

// List returns all sessions, newest first.
func (s *FileStore) List(_ context.Context) []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read()
	s.opts.metrics.ObserveStore("list", err)
	if err != nil {
		s.opts.logger.Error("Error reading sessions", "path", s.path, "error", err)
		return []domain.Session{}
	}
	return sessions
}

// Append prepends a new record and rewrites the log.
func (s *FileStore) Append(_ context.Context, draft domain.SessionDraft) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := domain.NewSession(s.opts.newID(), s.opts.now(), draft)
	if s.opts.readOnly {
		return session, ErrReadOnly
	}

	sessions, err := s.read()
	if err != nil {
		// Keep the unreadable file aside rather than silently overwriting it.
		backup := fmt.Sprintf("%s.corrupt-%d", s.path, s.opts.now().UnixNano())
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			s.opts.logger.Error("Failed to back up unreadable sessions file", "path", s.path, "error", renameErr)
		} else {
			s.opts.logger.Warn("Unreadable sessions file moved aside", "backup", backup, "error", err)
		}
		sessions = []domain.Session{}
	}

	sessions = append([]domain.Session{session}, sessions...)
	err = s.write(sessions)
	s.opts.metrics.ObserveStore("append", err)
	if err != nil {
		return session, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Clear replaces the log with an empty array.
func (s *FileStore) Clear(_ context.Context) error {
	if s.opts.readOnly {
		return ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.write([]domain.Session{})
	s.opts.metrics.ObserveStore("clear", err)
	if err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	return nil
}

// Ping checks that the data directory is reachable.
func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

var _ SessionStore = (*FileStore)(nil)
