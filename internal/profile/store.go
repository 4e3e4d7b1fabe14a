package profile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when a candidate has no profile yet.
var ErrNotFound = errors.New("profile not found")

// Store persists profiles and the per-candidate context the matching engine reads.
type Store interface {
	// Get returns a copy of the candidate's profile or ErrNotFound.
	Get(ctx context.Context, candidateID string) (*CognitiveProfile, error)
	// Merge applies u to the candidate's profile, creating it when absent,
	// and returns the stored result.
	Merge(ctx context.Context, candidateID string, u Update) (*CognitiveProfile, error)
	// RecordAssessment marks an assessment as completed. Repeats are ignored.
	RecordAssessment(ctx context.Context, candidateID, assessmentID string) error
	CompletedAssessments(ctx context.Context, candidateID string) (int, error)
	SetWorkSetup(ctx context.Context, candidateID, setup string) error
	// WorkSetup returns the preferred work setup or "" when unset.
	WorkSetup(ctx context.Context, candidateID string) (string, error)
	Close() error
}

var now = time.Now

type candidateState struct {
	profile     *CognitiveProfile
	assessments map[string]struct{}
	workSetup   string
}

// MemoryStore keeps everything in process. Safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates map[string]*candidateState
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{candidates: make(map[string]*candidateState)}
}

func (s *MemoryStore) Get(_ context.Context, candidateID string) (*CognitiveProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.candidates[candidateID]
	if !ok || st.profile == nil {
		return nil, ErrNotFound
	}
	return st.profile.Clone(), nil
}

func (s *MemoryStore) Merge(_ context.Context, candidateID string, u Update) (*CognitiveProfile, error) {
	if err := requireID(candidateID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(candidateID)
	if st.profile == nil {
		st.profile = New(candidateID)
	}
	st.profile.Apply(u, now())
	return st.profile.Clone(), nil
}

func (s *MemoryStore) RecordAssessment(_ context.Context, candidateID, assessmentID string) error {
	if err := requireID(candidateID); err != nil {
		return err
	}
	assessmentID = strings.TrimSpace(assessmentID)
	if assessmentID == "" {
		return errors.New("assessment id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state(candidateID).assessments[assessmentID] = struct{}{}
	return nil
}

func (s *MemoryStore) CompletedAssessments(_ context.Context, candidateID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.candidates[candidateID]; ok {
		return len(st.assessments), nil
	}
	return 0, nil
}

func (s *MemoryStore) SetWorkSetup(_ context.Context, candidateID, setup string) error {
	if err := requireID(candidateID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state(candidateID).workSetup = strings.TrimSpace(setup)
	return nil
}

func (s *MemoryStore) WorkSetup(_ context.Context, candidateID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.candidates[candidateID]; ok {
		return st.workSetup, nil
	}
	return "", nil
}

func (s *MemoryStore) Close() error { return nil }

// state must be called with the write lock held.
func (s *MemoryStore) state(candidateID string) *candidateState {
	st, ok := s.candidates[candidateID]
	if !ok {
		st = &candidateState{assessments: make(map[string]struct{})}
		s.candidates[candidateID] = st
	}
	return st
}

func requireID(candidateID string) error {
	if strings.TrimSpace(candidateID) == "" {
		return errors.New("candidate id is required")
	}
	return nil
}
