package client

import (
	"context"
	"errors"
	"sync"

	"github.com/sof-extractor/backend/internal/models"
)

var (
	// ErrNoFiles is returned by Start when nothing is selected.
	ErrNoFiles = errors.New("no files selected")
	// ErrProcessing is returned by Start while a request is in flight.
	ErrProcessing = errors.New("upload already in progress")
)

// State is the lifecycle of a Session.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of a Session.
type Snapshot struct {
	State   State
	Pending []models.UploadFile
	Results []models.ExtractionResult
	Err     error
}

// Session drives one upload page: a selection, at most one request in flight,
// and the outcome of the last request.
type Session struct {
	mu        sync.Mutex
	uploader  Uploader
	selection *Selection
	state     State
	results   []models.ExtractionResult
	err       error
}

// NewSession creates an idle session.
func NewSession(u Uploader, policy Policy) *Session {
	return &Session{
		uploader:  u,
		selection: NewSelection(policy),
	}
}

// Add selects files and returns the ones the policy rejected.
func (s *Session) Add(files ...models.UploadFile) []models.UploadFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Add(files...)
}

// Remove drops the pending file at index i.
func (s *Session) Remove(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Remove(i)
}

// Clear drops every pending file.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
}

// Start uploads the current selection and blocks until the relay answers.
// On failure the session moves to StateFailed and keeps the error; the
// previous results are discarded either way.
func (s *Session) Start(ctx context.Context) ([]models.ExtractionResult, error) {
	s.mu.Lock()
	if s.state == StateProcessing {
		s.mu.Unlock()
		return nil, ErrProcessing
	}
	if s.selection.Len() == 0 {
		s.mu.Unlock()
		return nil, ErrNoFiles
	}
	files := s.selection.Files()
	s.state = StateProcessing
	s.results = nil
	s.err = nil
	s.mu.Unlock()

	results, err := s.uploader.Upload(ctx, files)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.err = err
		return nil, err
	}
	s.state = StateReady
	s.results = results
	return results, nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the state, selection and outcome under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:   s.state,
		Pending: s.selection.Files(),
		Results: append([]models.ExtractionResult(nil), s.results...),
		Err:     s.err,
	}
}
