package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/assessment-engine/internal/cache"
	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

const (
	sessionKeyPrefix   = "assessment:session:"
	responsesKeySuffix = ":responses"
)

// RedisStore persists sessions through a CacheService so several server
// instances can share them. Responses for a session live under one key and are
// rewritten as a whole, which relies on the caller serializing access per
// session.
type RedisStore struct {
	cache cache.CacheService
	ttl   time.Duration
}

// NewRedisStore creates a store whose entries expire after ttl (0 keeps them forever).
func NewRedisStore(c cache.CacheService, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func sessionKey(id string) string   { return sessionKeyPrefix + id }
func responsesKey(id string) string { return sessionKeyPrefix + id + responsesKeySuffix }

func (r *RedisStore) GetSession(ctx context.Context, id string) (*models.AssessmentSession, error) {
	var s models.AssessmentSession
	if err := r.cache.Get(ctx, sessionKey(id), &s); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) SaveSession(ctx context.Context, s *models.AssessmentSession) error {
	if err := r.cache.Set(ctx, sessionKey(s.ID), s, r.ttl); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) GetResponses(ctx context.Context, sessionID string) (map[string]models.QuestionResponse, error) {
	responses := map[string]models.QuestionResponse{}
	if err := r.cache.Get(ctx, responsesKey(sessionID), &responses); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return map[string]models.QuestionResponse{}, nil
		}
		return nil, fmt.Errorf("failed to load responses for session %s: %w", sessionID, err)
	}
	return responses, nil
}

func (r *RedisStore) SaveResponse(ctx context.Context, sessionID string, resp models.QuestionResponse) error {
	responses, err := r.GetResponses(ctx, sessionID)
	if err != nil {
		return err
	}
	responses[resp.QuestionID] = resp
	if err := r.cache.Set(ctx, responsesKey(sessionID), responses, r.ttl); err != nil {
		return fmt.Errorf("failed to save response for session %s: %w", sessionID, err)
	}
	return nil
}

// Delete removes a session and its responses. Keys are removed one by one
// since a prefix pattern would also match longer ids.
func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	for _, key := range []string{sessionKey(sessionID), responsesKey(sessionID)} {
		if err := r.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}
