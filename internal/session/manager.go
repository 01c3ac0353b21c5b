// Package session runs learner attempts through the assessment state machine:
// in_progress <-> paused, in_progress -> completed | expired | abandoned.
//
// A Manager is not synchronized per session. Hosts that serve several requests
// concurrently must serialize calls that touch the same session id.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
	"github.com/SAP-F-2025/assessment-engine/internal/grading"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/scoring"
	"github.com/SAP-F-2025/assessment-engine/internal/validator"
)

type Manager struct {
	store      Store
	validator  *validator.Validator
	calculator *scoring.Calculator
	config     models.AssessmentEngineConfig
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Manager)

// WithStore replaces the default in-memory store.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

func WithConfig(cfg models.AssessmentEngineConfig) Option {
	return func(m *Manager) { m.config = cfg }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock fixes the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRandSource makes question shuffling reproducible.
func WithRandSource(src rand.Source) Option {
	return func(m *Manager) { m.rng = rand.New(src) }
}

// WithIDGenerator replaces uuid-based session ids.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		store:      NewMemoryStore(),
		validator:  validator.New(),
		calculator: scoring.NewCalculator(),
		config:     models.DefaultEngineConfig(),
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
		newID:      uuid.NewString,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the engine defaults the manager applies.
func (m *Manager) Config() models.AssessmentEngineConfig {
	return m.config
}

// StartAssessment validates a and opens a new in-progress session for userID.
// An assessment with a single invalid question cannot be started.
func (m *Manager) StartAssessment(ctx context.Context, a *models.Assessment, userID string, opts models.StartAssessmentOptions) (*models.AssessmentSession, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: assessment is nil", apperrors.ErrInvalidAssessment)
	}
	if err := m.validator.ValidateAssessment(a); err != nil {
		return nil, err
	}
	if err := m.validator.Validate(opts); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidAssessment, err)
	}

	order := make([]string, len(a.Questions))
	for i, q := range a.Questions {
		order[i] = q.ID
	}
	if resolveFlag(opts.ShuffleQuestions, a.ShuffleQuestions, m.config.ShuffleQuestions) {
		m.shuffle(order)
	}

	timeLimit := a.TimeLimit
	if opts.TimeLimit != nil {
		timeLimit = *opts.TimeLimit
	}

	s := &models.AssessmentSession{
		ID:             m.newID(),
		AssessmentID:   a.ID,
		UserID:         userID,
		Status:         models.SessionInProgress,
		QuestionOrder:  order,
		ShuffleOptions: resolveFlag(opts.ShuffleOptions, a.ShuffleOptions, m.config.ShuffleOptions),
		StartedAt:      m.now(),
		TimeLimit:      timeLimit,
	}
	if timeLimit > 0 {
		remaining := timeLimit
		s.TimeRemaining = &remaining
	}

	if err := m.store.SaveSession(ctx, s); err != nil {
		return nil, err
	}
	m.logger.InfoContext(ctx, "Assessment session started",
		"session_id", s.ID, "assessment_id", a.ID, "user_id", userID, "questions", len(order))
	return s, nil
}

// resolveFlag applies the per-call option when set, otherwise either the
// assessment or the engine default may enable the behavior.
func resolveFlag(option *bool, assessment, engine bool) bool {
	if option != nil {
		return *option
	}
	return assessment || engine
}

// shuffle is an in-place Fisher-Yates shuffle.
func (m *Manager) shuffle(ids []string) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	for i := len(ids) - 1; i > 0; i-- {
		j := m.rng.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// GetSession returns the stored session.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*models.AssessmentSession, error) {
	return m.store.GetSession(ctx, sessionID)
}

// Restore loads a previously persisted session and its responses into the
// store, e.g. after a restart with the in-memory store.
func (m *Manager) Restore(ctx context.Context, s *models.AssessmentSession, responses map[string]models.QuestionResponse) error {
	if err := m.store.SaveSession(ctx, s); err != nil {
		return err
	}
	for _, r := range responses {
		if err := m.store.SaveResponse(ctx, s.ID, r); err != nil {
			return err
		}
	}
	m.logger.DebugContext(ctx, "Assessment session restored", "session_id", s.ID, "responses", len(responses))
	return nil
}

// Forget drops a session and its responses from the store. Hosts call it once
// the scored session is persisted elsewhere; Restore brings it back.
func (m *Manager) Forget(ctx context.Context, sessionID string) error {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	m.logger.DebugContext(ctx, "Assessment session evicted", "session_id", sessionID)
	return nil
}

// GetResponses returns the recorded responses of a session keyed by question id.
func (m *Manager) GetResponses(ctx context.Context, sessionID string) (map[string]models.QuestionResponse, error) {
	return m.store.GetResponses(ctx, sessionID)
}

// GetCurrentQuestion returns the question at the session's current position.
// It returns nil without error when the session is unknown, not in progress,
// or already past its last question. The question is returned as authored;
// callers must apply Question.Sanitized before showing it to a learner.
func (m *Manager) GetCurrentQuestion(ctx context.Context, sessionID string, a *models.Assessment) (*models.Question, error) {
	s, err := m.lookup(ctx, sessionID)
	if err != nil || s == nil {
		return nil, err
	}
	if s.Status != models.SessionInProgress || s.CurrentQuestionIndex >= len(s.QuestionOrder) {
		return nil, nil
	}
	q, ok := a.QuestionByID(s.QuestionOrder[s.CurrentQuestionIndex])
	if !ok {
		return nil, nil
	}
	return q, nil
}

// SubmitResult reports where the session stands after an answer.
type SubmitResult struct {
	NextIndex int  `json:"next_index"`
	Completed bool `json:"completed"`
}

// SubmitAnswer records answer for questionID, replacing any earlier response to
// the same question, and advances the session. Answering the last position
// completes the session. An answer whose shape does not fit the question type
// fails with apperrors.ErrMalformedAnswer and leaves the session untouched.
func (m *Manager) SubmitAnswer(ctx context.Context, sessionID string, a *models.Assessment, questionID string, answer any, timeSpent int) (SubmitResult, error) {
	if a == nil {
		return SubmitResult{}, fmt.Errorf("%w: assessment is nil", apperrors.ErrInvalidAssessment)
	}
	s, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if s.AssessmentID != a.ID {
		return SubmitResult{}, fmt.Errorf("%w: session %s belongs to assessment %s, not %s",
			apperrors.ErrInvalidAssessment, sessionID, s.AssessmentID, a.ID)
	}
	if s.Status != models.SessionInProgress {
		return SubmitResult{}, fmt.Errorf("%w: session %s is %s", apperrors.ErrSessionNotActive, sessionID, s.Status)
	}
	q, ok := a.QuestionByID(questionID)
	if !ok || !containsID(s.QuestionOrder, questionID) {
		return SubmitResult{}, fmt.Errorf("%w: %s is not part of session %s", apperrors.ErrUnknownQuestion, questionID, sessionID)
	}
	if err := grading.CheckAnswer(q, answer); err != nil {
		return SubmitResult{}, err
	}

	now := m.now()
	resp := models.QuestionResponse{
		QuestionID: questionID,
		Answer:     answer,
		Timestamp:  now,
		TimeSpent:  max(timeSpent, 0),
	}
	if err := m.store.SaveResponse(ctx, sessionID, resp); err != nil {
		return SubmitResult{}, err
	}

	if s.CurrentQuestionIndex < len(s.QuestionOrder) {
		s.CurrentQuestionIndex++
	}
	completed := s.CurrentQuestionIndex >= len(s.QuestionOrder)
	if completed {
		m.complete(s, now)
	} else {
		m.refreshRemaining(s, now)
	}
	if err := m.store.SaveSession(ctx, s); err != nil {
		return SubmitResult{}, err
	}

	m.logger.DebugContext(ctx, "Answer recorded",
		"session_id", sessionID, "question_id", questionID, "index", s.CurrentQuestionIndex, "completed", completed)
	return SubmitResult{NextIndex: s.CurrentQuestionIndex, Completed: completed}, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// CompleteAssessment completes the session if it is still open and scores it
// with the time bonus applied. Completing an already completed session does not
// move its completion time, so repeated calls return the same result. Expired
// sessions are scored as they stand; abandoned sessions cannot be scored.
func (m *Manager) CompleteAssessment(ctx context.Context, sessionID string, a *models.Assessment, opts models.ScoringOptions) (*models.ScoreResult, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: assessment is nil", apperrors.ErrInvalidAssessment)
	}
	s, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.AssessmentID != a.ID {
		return nil, fmt.Errorf("%w: session %s belongs to assessment %s, not %s",
			apperrors.ErrInvalidAssessment, sessionID, s.AssessmentID, a.ID)
	}

	switch s.Status {
	case models.SessionAbandoned:
		return nil, fmt.Errorf("%w: session %s was abandoned", apperrors.ErrSessionNotActive, sessionID)
	case models.SessionInProgress, models.SessionPaused:
		m.complete(s, m.now())
		if err := m.store.SaveSession(ctx, s); err != nil {
			return nil, err
		}
		m.logger.InfoContext(ctx, "Assessment session completed", "session_id", sessionID)
	case models.SessionExpired:
		if s.CompletedAt == nil {
			m.stampCompletion(s, m.now())
			if err := m.store.SaveSession(ctx, s); err != nil {
				return nil, err
			}
		}
	}

	responses, err := m.store.GetResponses(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers := make(map[string]any, len(responses))
	for id, r := range responses {
		answers[id] = r.Answer
	}

	scored := *a
	scored.TimeLimit = s.TimeLimit
	if a.PassingScore <= 0 && opts.PassingScore == nil && m.config.MinPassingScore > 0 {
		passing := m.config.MinPassingScore
		opts.PassingScore = &passing
	}
	opts.IncludeTimeBonus = true
	opts.TimeSpent = s.ElapsedSeconds(m.now())

	return m.calculator.Calculate(&scored, answers, opts)
}

// PauseSession pauses an in-progress session. It reports whether the state
// changed; pausing a session in any other state is a no-op.
func (m *Manager) PauseSession(ctx context.Context, sessionID string) (bool, error) {
	s, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if s.Status != models.SessionInProgress {
		return false, nil
	}
	now := m.now()
	m.refreshRemaining(s, now)
	s.Status = models.SessionPaused
	s.PausedAt = &now
	if err := m.store.SaveSession(ctx, s); err != nil {
		return false, err
	}
	m.logger.InfoContext(ctx, "Assessment session paused", "session_id", sessionID, "time_remaining", s.TimeRemaining)
	return true, nil
}

// ResumeSession resumes a paused session. Resuming a session in any other state
// is a no-op.
func (m *Manager) ResumeSession(ctx context.Context, sessionID string) (bool, error) {
	s, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if s.Status != models.SessionPaused {
		return false, nil
	}
	m.foldPause(s, m.now())
	s.Status = models.SessionInProgress
	if err := m.store.SaveSession(ctx, s); err != nil {
		return false, err
	}
	m.logger.InfoContext(ctx, "Assessment session resumed", "session_id", sessionID)
	return true, nil
}

// MarkExpired moves an open session to expired, typically once its deadline
// has passed.
func (m *Manager) MarkExpired(ctx context.Context, sessionID string) (bool, error) {
	return m.terminate(ctx, sessionID, models.SessionExpired)
}

// MarkAbandoned moves an open session to abandoned.
func (m *Manager) MarkAbandoned(ctx context.Context, sessionID string) (bool, error) {
	return m.terminate(ctx, sessionID, models.SessionAbandoned)
}

func (m *Manager) terminate(ctx context.Context, sessionID string, status models.SessionStatus) (bool, error) {
	s, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if s.IsTerminal() {
		return false, nil
	}
	now := m.now()
	m.foldPause(s, now)
	m.refreshRemaining(s, now)
	s.Status = status
	if err := m.store.SaveSession(ctx, s); err != nil {
		return false, err
	}
	m.logger.InfoContext(ctx, "Assessment session closed", "session_id", sessionID, "status", status)
	return true, nil
}

// GetProgress returns the percentage of the question order already answered,
// or 0 for an unknown session.
func (m *Manager) GetProgress(ctx context.Context, sessionID string) (float64, error) {
	s, err := m.lookup(ctx, sessionID)
	if err != nil || s == nil {
		return 0, err
	}
	return s.Progress(), nil
}

// lookup returns nil without error for unknown sessions.
func (m *Manager) lookup(ctx context.Context, sessionID string) (*models.AssessmentSession, error) {
	s, err := m.store.GetSession(ctx, sessionID)
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		return nil, nil
	}
	return s, err
}

func (m *Manager) complete(s *models.AssessmentSession, now time.Time) {
	s.Status = models.SessionCompleted
	m.stampCompletion(s, now)
}

func (m *Manager) stampCompletion(s *models.AssessmentSession, now time.Time) {
	m.foldPause(s, now)
	s.CompletedAt = &now
	m.refreshRemaining(s, now)
}

// foldPause moves an open pause interval into PausedSeconds.
func (m *Manager) foldPause(s *models.AssessmentSession, now time.Time) {
	if s.PausedAt == nil {
		return
	}
	s.PausedSeconds += max(int(now.Sub(*s.PausedAt).Seconds()), 0)
	s.PausedAt = nil
}

func (m *Manager) refreshRemaining(s *models.AssessmentSession, now time.Time) {
	if s.TimeLimit <= 0 {
		return
	}
	remaining := max(s.TimeLimit-s.ElapsedSeconds(now), 0)
	s.TimeRemaining = &remaining
}
