package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/export"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/services"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// StartSession starts a new session for the current learner
// @Summary Start session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body services.StartSessionRequest true "Session options"
// @Success 201 {object} SuccessResponse{data=models.AssessmentSession}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req services.StartSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.LogRequest(c, "Starting session", "assessment_id", req.AssessmentID)

	session, err := h.sessionService.StartSession(c.Request.Context(), c.GetString(userIDKey), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Session started", session)
}

// ListSessions lists the current learner's sessions, newest first
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Param assessment_id query string false "Assessment ID"
// @Param status query string false "Session status"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} SuccessResponse{data=services.ListSessionsResponse}
// @Failure 400 {object} ErrorResponse
// @Router /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	req := h.parseListSessionsRequest(c)

	resp, err := h.sessionService.ListSessions(c.Request.Context(), c.GetString(userIDKey), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Sessions", resp)
}

func (h *SessionHandler) parseListSessionsRequest(c *gin.Context) *services.ListSessionsRequest {
	req := &services.ListSessionsRequest{
		AssessmentID: c.Query("assessment_id"),
		Limit:        h.parseIntQuery(c, "limit", 0),
		Offset:       h.parseIntQuery(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		s := models.SessionStatus(status)
		req.Status = &s
	}
	return req
}

func (h *SessionHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// GetCurrentQuestion returns the question to answer next, without answer keys
// @Summary Current question
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=models.Question}
// @Success 204
// @Router /sessions/{id}/question [get]
func (h *SessionHandler) GetCurrentQuestion(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	question, err := h.sessionService.CurrentQuestion(c.Request.Context(), sessionID, c.GetString(userIDKey))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if question == nil {
		c.Status(http.StatusNoContent)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Current question", question)
}

// SubmitAnswer records an answer for the current session
// @Summary Submit answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.SubmitAnswerRequest true "Answer"
// @Success 200 {object} SuccessResponse{data=services.SubmitAnswerResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/answers [post]
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}
	var req services.SubmitAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.LogRequest(c, "Submitting answer", "session_id", sessionID, "question_id", req.QuestionID)

	resp, err := h.sessionService.SubmitAnswer(c.Request.Context(), sessionID, c.GetString(userIDKey), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Answer recorded", resp)
}

// PauseSession pauses an in-progress session
// @Router /sessions/{id}/pause [post]
func (h *SessionHandler) PauseSession(c *gin.Context) {
	h.transition(c, "Session paused", h.sessionService.Pause)
}

// ResumeSession resumes a paused session
// @Router /sessions/{id}/resume [post]
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	h.transition(c, "Session resumed", h.sessionService.Resume)
}

// AbandonSession ends a session without scoring it
// @Router /sessions/{id}/abandon [post]
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	h.transition(c, "Session abandoned", h.sessionService.Abandon)
}

type sessionTransition func(ctx context.Context, sessionID, userID string) (*models.AssessmentSession, error)

func (h *SessionHandler) transition(c *gin.Context, message string, apply sessionTransition) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}
	h.LogRequest(c, message, "session_id", sessionID)

	session, err := apply(c.Request.Context(), sessionID, c.GetString(userIDKey))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, message, session)
}

// CompleteSession scores the session. Completing twice returns the same score.
// @Summary Complete session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=models.ScoreResult}
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/complete [post]
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}
	h.LogRequest(c, "Completing session", "session_id", sessionID)

	score, err := h.sessionService.Complete(c.Request.Context(), sessionID, c.GetString(userIDKey))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Session completed", score)
}

// GetProgress returns position and remaining time
// @Router /sessions/{id}/progress [get]
func (h *SessionHandler) GetProgress(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	progress, err := h.sessionService.Progress(c.Request.Context(), sessionID, c.GetString(userIDKey))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Session progress", progress)
}

// GetReport returns the performance report of a completed session
// @Router /sessions/{id}/report [get]
func (h *SessionHandler) GetReport(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	report, err := h.sessionService.Report(c.Request.Context(), sessionID, c.GetString(userIDKey))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Performance report", report)
}

// ExportResult downloads the score breakdown as an Excel workbook
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /sessions/{id}/export [get]
func (h *SessionHandler) ExportResult(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	workbook, err := h.sessionService.Export(c.Request.Context(), sessionID, c.GetString(userIDKey))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.xlsx"`, sessionID))
	c.Data(http.StatusOK, export.ContentType, workbook)
}

func (h *SessionHandler) bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation, "Invalid request payload", err, err.Error())
		return false
	}
	return true
}
