package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no session exists for an ID. A corrupt or
// partially-written file is treated the same as a missing one; other read
// failures surface as wrapped errors.
var ErrNotFound = errors.New("session not found")

// Store persists sessions as one JSON document per session under dir.
// Writes are atomic (write-temp-then-rename) and serialized, so a crash
// mid-write cannot corrupt a session.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// Create mints a new session and persists it.
func (s *Store) Create(brief string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		SessionID: uuid.NewString(),
		Brief:     brief,
		CreatedAt: now,
		UpdatedAt: now,
		Phases:    make(map[int]*PhaseRecord),
	}
	if err := s.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load reads a persisted session. A missing file and a corrupt or
// partially-written one both yield ErrNotFound; other I/O failures (an
// unreadable store) surface as errors in their own right.
func (s *Store) Load(sessionID string) (*Session, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, ErrNotFound
	}
	if sess.Phases == nil {
		sess.Phases = make(map[int]*PhaseRecord)
	}
	return &sess, nil
}

// Save persists the session atomically.
func (s *Store) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(sess)
}

func (s *Store) save(sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.dir, "session-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(sess.SessionID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// MarkPhaseStarted records a phase entering in_progress.
func (s *Store) MarkPhaseStarted(sess *Session, phase int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := sess.Phase(phase).Start(); err != nil {
		return err
	}
	return s.save(sess)
}

// MarkPhaseCompleted records a phase's accepted result.
func (s *Store) MarkPhaseCompleted(sess *Session, phase int, winner string, score float64, result json.RawMessage, converged bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := sess.Phase(phase).Complete(winner, score, result, converged); err != nil {
		return err
	}
	return s.save(sess)
}

// MarkPhaseFailed records a phase abort.
func (s *Store) MarkPhaseFailed(sess *Session, phase int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := sess.Phase(phase).Fail(); err != nil {
		return err
	}
	return s.save(sess)
}

// ResetPhase rewinds a failed phase for a retry run.
func (s *Store) ResetPhase(sess *Session, phase int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := sess.Phase(phase).Reset(); err != nil {
		return err
	}
	return s.save(sess)
}

// AppendAttempt appends one round's immutable attempt record.
func (s *Store) AppendAttempt(sess *Session, phase int, att Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := sess.Phase(phase)
	if att.Number == 0 {
		att.Number = len(rec.Attempts) + 1
	}
	rec.Attempts = append(rec.Attempts, att)
	return s.save(sess)
}
