package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
	"github.com/SAP-F-2025/assessment-engine/internal/events"
	"github.com/SAP-F-2025/assessment-engine/internal/export"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/report"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/assessment-engine/internal/session"
	"github.com/SAP-F-2025/assessment-engine/internal/validator"
)

// ===== REQUEST / RESPONSE TYPES =====

type StartSessionRequest struct {
	AssessmentID     string `json:"assessment_id" validate:"required"`
	ShuffleQuestions *bool  `json:"shuffle_questions,omitempty"`
	ShuffleOptions   *bool  `json:"shuffle_options,omitempty"`
	TimeLimit        *int   `json:"time_limit,omitempty" validate:"omitempty,gte=0"`
}

type SubmitAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     any    `json:"answer"`
	TimeSpent  int    `json:"time_spent" validate:"gte=0"`
}

type SubmitAnswerResponse struct {
	NextIndex int                 `json:"next_index"`
	Completed bool                `json:"completed"`
	Progress  float64             `json:"progress"`
	Score     *models.ScoreResult `json:"score,omitempty"`
}

type ListSessionsRequest struct {
	AssessmentID string                `json:"assessment_id,omitempty"`
	Status       *models.SessionStatus `json:"status,omitempty" validate:"omitempty,oneof=in_progress paused completed expired abandoned"`
	Limit        int                   `json:"limit" validate:"gte=0,lte=100"`
	Offset       int                   `json:"offset" validate:"gte=0"`
}

type ListSessionsResponse struct {
	Sessions []*models.AssessmentSession `json:"sessions"`
	Total    int64                       `json:"total"`
	Limit    int                         `json:"limit"`
	Offset   int                         `json:"offset"`
}

type ProgressResponse struct {
	SessionID            string               `json:"session_id"`
	Status               models.SessionStatus `json:"status"`
	CurrentQuestionIndex int                  `json:"current_question_index"`
	TotalQuestions       int                  `json:"total_questions"`
	Progress             float64              `json:"progress"`
	TimeRemaining        *int                 `json:"time_remaining,omitempty"`
}

// DefaultSessionPageSize applies when a listing does not set a limit.
const DefaultSessionPageSize = 20

// SessionService hosts the session manager: it loads assessments, keeps
// answers away from learners, persists snapshots and results, and publishes
// lifecycle events. Calls for the same session are serialized.
type SessionService interface {
	StartSession(ctx context.Context, userID string, req *StartSessionRequest) (*models.AssessmentSession, error)
	CurrentQuestion(ctx context.Context, sessionID, userID string) (*models.Question, error)
	SubmitAnswer(ctx context.Context, sessionID, userID string, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error)
	Pause(ctx context.Context, sessionID, userID string) (*models.AssessmentSession, error)
	Resume(ctx context.Context, sessionID, userID string) (*models.AssessmentSession, error)
	Abandon(ctx context.Context, sessionID, userID string) (*models.AssessmentSession, error)
	Complete(ctx context.Context, sessionID, userID string) (*models.ScoreResult, error)
	Progress(ctx context.Context, sessionID, userID string) (*ProgressResponse, error)
	ListSessions(ctx context.Context, userID string, req *ListSessionsRequest) (*ListSessionsResponse, error)
	Report(ctx context.Context, sessionID, userID string) (*models.PerformanceReport, error)
	Export(ctx context.Context, sessionID, userID string) ([]byte, error)
}

type sessionService struct {
	repo      repositories.Repository
	manager   *session.Manager
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
	config    models.AssessmentEngineConfig
	now       func() time.Time

	locks *keyedMutex

	saveMu    sync.Mutex
	lastSaved map[string]time.Time
}

func NewSessionService(repo repositories.Repository, manager *session.Manager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) SessionService {
	return &sessionService{
		repo:      repo,
		manager:   manager,
		publisher: publisher,
		validator: validator,
		logger: NewServiceLogger(logger, LogConfig{
			Service:     "assessment-engine",
			Component:   "session",
			EnableDebug: logger.Enabled(context.Background(), slog.LevelDebug),
		}),
		config:    manager.Config(),
		now:       time.Now,
		locks:     newKeyedMutex(),
		lastSaved: make(map[string]time.Time),
	}
}

// ===== LIFECYCLE =====

func (s *sessionService) StartSession(ctx context.Context, userID string, req *StartSessionRequest) (sess *models.AssessmentSession, err error) {
	op := s.logger.WithOperation(ctx, "start_session", userID)
	defer func() { op.LogResult(sessionIDOf(sess), err) }()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assessment, err := s.loadAssessment(ctx, req.AssessmentID)
	if err != nil {
		return nil, err
	}
	if assessment.Status != "" && assessment.Status != models.StatusPublished {
		return nil, fmt.Errorf("%w: %s is %s", ErrAssessmentNotPublished, assessment.ID, assessment.Status)
	}

	// Serialize starts per learner and assessment so the attempt count stays accurate.
	unlock := s.locks.Lock("attempts:" + assessment.ID + ":" + userID)
	defer unlock()

	if err := s.checkAttemptLimit(ctx, assessment, userID); err != nil {
		return nil, err
	}

	sess, err = s.manager.StartAssessment(ctx, assessment, userID, models.StartAssessmentOptions{
		ShuffleQuestions: req.ShuffleQuestions,
		ShuffleOptions:   req.ShuffleOptions,
		TimeLimit:        req.TimeLimit,
	})
	if err != nil {
		return nil, err
	}

	if err := s.snapshot(ctx, sess); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewSessionEvent(events.EventSessionStarted, events.SessionStartedEvent{
		SessionID:     sess.ID,
		AssessmentID:  sess.AssessmentID,
		UserID:        sess.UserID,
		QuestionOrder: sess.QuestionOrder,
		TimeLimit:     sess.TimeLimit,
	}))
	return sess, nil
}

func (s *sessionService) checkAttemptLimit(ctx context.Context, assessment *models.Assessment, userID string) error {
	limit := assessment.AllowedAttempts
	if limit <= 0 {
		limit = s.config.MaxAttempts
	}
	if limit <= 0 {
		return nil
	}

	count, err := s.repo.Sessions().CountAttempts(ctx, assessment.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to count attempts: %w", err)
	}
	if count >= int64(limit) {
		return fmt.Errorf("%w: %d of %d attempts used", ErrAttemptLimitExceeded, count, limit)
	}
	return nil
}

// CurrentQuestion returns the sanitized current question, or nil when the
// session has no question to show.
func (s *sessionService) CurrentQuestion(ctx context.Context, sessionID, userID string) (*models.Question, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	assessment, err := s.loadAssessment(ctx, sess.AssessmentID)
	if err != nil {
		return nil, err
	}

	q, err := s.manager.GetCurrentQuestion(ctx, sessionID, assessment)
	if err != nil || q == nil {
		return nil, err
	}
	return q.Sanitized(), nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, sessionID, userID string, req *SubmitAnswerRequest) (resp *SubmitAnswerResponse, err error) {
	op := s.logger.WithOperation(ctx, "submit_answer", userID)
	defer func() { op.LogResult(sessionID, err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	assessment, err := s.loadAssessment(ctx, sess.AssessmentID)
	if err != nil {
		return nil, err
	}

	result, err := s.manager.SubmitAnswer(ctx, sessionID, assessment, req.QuestionID, req.Answer, req.TimeSpent)
	if err != nil {
		return nil, err
	}

	resp = &SubmitAnswerResponse{NextIndex: result.NextIndex, Completed: result.Completed}
	if total := len(sess.QuestionOrder); total > 0 {
		resp.Progress = float64(result.NextIndex) / float64(total) * 100
	}

	if result.Completed {
		resp.Score, err = s.finish(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}

	if err := s.autoSave(ctx, sessionID); err != nil {
		s.logger.Warn(ctx, "Auto-save failed", "session_id", sessionID, "error", err)
	}
	return resp, nil
}

func (s *sessionService) Pause(ctx context.Context, sessionID, userID string) (*models.AssessmentSession, error) {
	return s.transition(ctx, "pause_session", sessionID, userID, s.manager.PauseSession)
}

func (s *sessionService) Resume(ctx context.Context, sessionID, userID string) (*models.AssessmentSession, error) {
	return s.transition(ctx, "resume_session", sessionID, userID, s.manager.ResumeSession)
}

func (s *sessionService) Abandon(ctx context.Context, sessionID, userID string) (*models.AssessmentSession, error) {
	return s.transition(ctx, "abandon_session", sessionID, userID, s.manager.MarkAbandoned)
}

// transition applies a state change and snapshots the session when it changed.
// Requests that do not apply to the current state are answered with the
// unchanged session.
func (s *sessionService) transition(ctx context.Context, operation, sessionID, userID string, apply func(context.Context, string) (bool, error)) (sess *models.AssessmentSession, err error) {
	op := s.logger.WithOperation(ctx, operation, userID)
	defer func() { op.LogResult(sessionID, err) }()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if _, err := s.ownedSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	changed, err := apply(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess, err = s.manager.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.snapshot(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (s *sessionService) Complete(ctx context.Context, sessionID, userID string) (score *models.ScoreResult, err error) {
	op := s.logger.WithOperation(ctx, "complete_session", userID)
	defer func() { op.LogResult(sessionID, err) }()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if _, err := s.ownedSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.finish(ctx, sessionID)
}

// finish scores a session, stores the result and announces it. Events are
// only published the first time a result is stored for the session. Once the
// result is stored the live copy is dropped from the manager's store; later
// calls restore it from the snapshot.
func (s *sessionService) finish(ctx context.Context, sessionID string) (*models.ScoreResult, error) {
	sess, err := s.manager.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	assessment, err := s.loadAssessment(ctx, sess.AssessmentID)
	if err != nil {
		return nil, err
	}

	score, err := s.manager.CompleteAssessment(ctx, sessionID, assessment, models.ScoringOptions{})
	if err != nil {
		return nil, err
	}

	sess, err = s.manager.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.snapshot(ctx, sess); err != nil {
		return nil, err
	}
	_, err = s.repo.Results().GetBySessionID(ctx, sessionID)
	firstResult := errors.Is(err, repositories.ErrNotFound)
	if err != nil && !firstResult {
		return nil, fmt.Errorf("failed to load score result: %w", err)
	}
	if err := s.repo.Results().Save(ctx, sess, score); err != nil {
		return nil, fmt.Errorf("failed to save score result: %w", err)
	}
	s.forgetSave(sessionID)
	if err := s.manager.Forget(ctx, sessionID); err != nil {
		s.logger.Warn(ctx, "Failed to evict finished session", "session_id", sessionID, "error", err)
	}

	if firstResult {
		s.publish(ctx, events.NewSessionCompletedEvent(sess, score))
		if score.IsProvisional() {
			s.publish(ctx, events.NewSessionEvent(events.EventManualGradingRequired, events.ManualGradingRequiredEvent{
				SessionID:    sess.ID,
				AssessmentID: sess.AssessmentID,
				UserID:       sess.UserID,
				QuestionIDs:  score.ManualReviewQuestions,
			}))
		}
	}
	return score, nil
}

// ===== QUERIES =====

func (s *sessionService) Progress(ctx context.Context, sessionID, userID string) (*ProgressResponse, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	progress, err := s.manager.GetProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &ProgressResponse{
		SessionID:            sess.ID,
		Status:               sess.Status,
		CurrentQuestionIndex: sess.CurrentQuestionIndex,
		TotalQuestions:       len(sess.QuestionOrder),
		Progress:             progress,
		TimeRemaining:        sess.TimeRemaining,
	}, nil
}

// ListSessions pages through the caller's own sessions, newest first.
func (s *sessionService) ListSessions(ctx context.Context, userID string, req *ListSessionsRequest) (resp *ListSessionsResponse, err error) {
	op := s.logger.WithOperation(ctx, "list_sessions", userID)
	defer func() { op.LogResult("", err) }()

	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit == 0 {
		limit = DefaultSessionPageSize
	}
	sessions, total, err := s.repo.Sessions().List(ctx, repositories.SessionFilters{
		AssessmentID: req.AssessmentID,
		UserID:       userID,
		Status:       req.Status,
		Limit:        limit,
		Offset:       req.Offset,
		SortOrder:    "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []*models.AssessmentSession{}
	}
	return &ListSessionsResponse{Sessions: sessions, Total: total, Limit: limit, Offset: req.Offset}, nil
}

func (s *sessionService) Report(ctx context.Context, sessionID, userID string) (*models.PerformanceReport, error) {
	sess, score, err := s.completedResult(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	assessment, err := s.loadAssessment(ctx, sess.AssessmentID)
	if err != nil {
		return nil, err
	}
	return report.GeneratePerformanceReport(score, assessment)
}

func (s *sessionService) Export(ctx context.Context, sessionID, userID string) ([]byte, error) {
	sess, score, err := s.completedResult(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return export.ScoreWorkbook(sess, score)
}

func (s *sessionService) completedResult(ctx context.Context, sessionID, userID string) (*models.AssessmentSession, *models.ScoreResult, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, nil, err
	}
	score, err := s.repo.Results().GetBySessionID(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		if sess.Status != models.SessionCompleted {
			return nil, nil, fmt.Errorf("%w: session %s is %s", ErrSessionNotCompleted, sessionID, sess.Status)
		}
		return nil, nil, ErrResultNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return sess, score, nil
}

// ===== HELPERS =====

func (s *sessionService) loadAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	assessment, err := s.repo.Assessments().GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAssessmentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load assessment %s: %w", id, err)
	}
	return assessment, nil
}

// ownedSession returns the session if userID owns it. Sessions missing from
// the manager's store are restored from their last snapshot.
func (s *sessionService) ownedSession(ctx context.Context, sessionID, userID string) (*models.AssessmentSession, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	sess, err := s.manager.GetSession(ctx, sessionID)
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		sess, err = s.restore(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrForbidden
	}
	return sess, nil
}

func (s *sessionService) restore(ctx context.Context, sessionID string) (*models.AssessmentSession, error) {
	snap, err := s.repo.Sessions().GetSnapshot(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session snapshot: %w", err)
	}
	if err := s.manager.Restore(ctx, &snap.Session, snap.Responses); err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "Session restored from snapshot", "session_id", sessionID)
	return &snap.Session, nil
}

func (s *sessionService) snapshot(ctx context.Context, sess *models.AssessmentSession) error {
	responses, err := s.manager.GetResponses(ctx, sess.ID)
	if err != nil {
		return err
	}
	if err := s.repo.Sessions().SaveSnapshot(ctx, &repositories.SessionSnapshot{Session: *sess, Responses: responses}); err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}
	s.markSaved(sess.ID)
	return nil
}

// autoSave snapshots a session at most once per save interval.
func (s *sessionService) autoSave(ctx context.Context, sessionID string) error {
	if !s.config.AutoSave || !s.saveDue(sessionID) {
		return nil
	}
	sess, err := s.manager.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.snapshot(ctx, sess)
}

func (s *sessionService) saveDue(sessionID string) bool {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	last, ok := s.lastSaved[sessionID]
	return !ok || s.now().Sub(last) >= time.Duration(s.config.SaveInterval)*time.Second
}

func (s *sessionService) markSaved(sessionID string) {
	s.saveMu.Lock()
	s.lastSaved[sessionID] = s.now()
	s.saveMu.Unlock()
}

func (s *sessionService) forgetSave(sessionID string) {
	s.saveMu.Lock()
	delete(s.lastSaved, sessionID)
	s.saveMu.Unlock()
}

func (s *sessionService) publish(ctx context.Context, event *events.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to publish session event", "event_type", event.Type, "error", err)
	}
}

func sessionIDOf(sess *models.AssessmentSession) string {
	if sess == nil {
		return ""
	}
	return sess.ID
}
