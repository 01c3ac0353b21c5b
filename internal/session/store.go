package session

import (
	"context"
	"maps"
	"slices"
	"sync"

	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

// Store keeps sessions and their responses keyed by session id. GetSession
// returns apperrors.ErrSessionNotFound for unknown ids. Delete of an unknown
// id is not an error.
type Store interface {
	GetSession(ctx context.Context, id string) (*models.AssessmentSession, error)
	SaveSession(ctx context.Context, s *models.AssessmentSession) error
	GetResponses(ctx context.Context, sessionID string) (map[string]models.QuestionResponse, error)
	SaveResponse(ctx context.Context, sessionID string, r models.QuestionResponse) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is the default Store. Values are copied on the way in and out so
// callers never share state with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*models.AssessmentSession
	responses map[string]map[string]models.QuestionResponse
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]*models.AssessmentSession),
		responses: make(map[string]map[string]models.QuestionResponse),
	}
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (*models.AssessmentSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (m *MemoryStore) SaveSession(_ context.Context, s *models.AssessmentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *MemoryStore) GetResponses(_ context.Context, sessionID string) (map[string]models.QuestionResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.responses[sessionID]), nil
}

func (m *MemoryStore) SaveResponse(_ context.Context, sessionID string, r models.QuestionResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.responses[sessionID] == nil {
		m.responses[sessionID] = make(map[string]models.QuestionResponse)
	}
	m.responses[sessionID][r.QuestionID] = r
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	delete(m.responses, sessionID)
	return nil
}

func cloneSession(s *models.AssessmentSession) *models.AssessmentSession {
	out := *s
	out.QuestionOrder = slices.Clone(s.QuestionOrder)
	out.PausedAt = clonePtr(s.PausedAt)
	out.CompletedAt = clonePtr(s.CompletedAt)
	out.TimeRemaining = clonePtr(s.TimeRemaining)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
