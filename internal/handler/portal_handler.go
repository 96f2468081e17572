package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spardha-tech/spardha-backend/internal/middleware"
	"github.com/spardha-tech/spardha-backend/internal/model"
	"github.com/spardha-tech/spardha-backend/internal/repository"
	"github.com/spardha-tech/spardha-backend/internal/response"
	"github.com/spardha-tech/spardha-backend/internal/schedule"
	"github.com/spardha-tech/spardha-backend/internal/service"
	"github.com/spardha-tech/spardha-backend/internal/validator"
)

// PortalHandler handles the participant-facing quiz endpoints.
type PortalHandler struct {
	quizSvc       *service.QuizService
	enrollmentSvc *service.EnrollmentService
	sessionSvc    *service.SessionService
	submissionSvc *service.SubmissionService
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(
	quizSvc *service.QuizService,
	enrollmentSvc *service.EnrollmentService,
	sessionSvc *service.SessionService,
	submissionSvc *service.SubmissionService,
) *PortalHandler {
	return &PortalHandler{
		quizSvc:       quizSvc,
		enrollmentSvc: enrollmentSvc,
		sessionSvc:    sessionSvc,
		submissionSvc: submissionSvc,
	}
}

func quizIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// ListQuizzes godoc
// GET /api/v1/portal/competitions/:competition/quizzes
// Lists all quizzes for one competition.
func (h *PortalHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.quizSvc.ListByCompetition(c.Request.Context(), c.Param("competition"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownCompetition) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// GetQuiz godoc
// GET /api/v1/portal/quizzes/:quiz_id
// Returns one quiz's details, with the participant's enrollment overlaid.
func (h *PortalHandler) GetQuiz(c *gin.Context) {
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	quiz, err := h.quizSvc.GetByID(c.Request.Context(), quizID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	data := gin.H{"quiz": quiz}
	if claims := middleware.GetClaims(c); claims != nil {
		if enrollment, eerr := h.enrollmentSvc.Get(c.Request.Context(), claims.UserID, quizID); eerr == nil {
			data["enrollment"] = enrollment
		}
	}
	response.Success(c, http.StatusOK, data)
}

// Enroll godoc
// POST /api/v1/portal/quizzes/:quiz_id/enroll
// Enrolls the participant and mails their entry token.
func (h *PortalHandler) Enroll(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollmentSvc.Enroll(c.Request.Context(), claims.UserID, quizID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"enrollment": enrollment})
}

// MyEnrollments godoc
// GET /api/v1/portal/competitions/:competition/enrollments
// Lists the participant's enrollments in one competition.
func (h *PortalHandler) MyEnrollments(c *gin.Context) {
	claims := middleware.GetClaims(c)

	enrollments, err := h.enrollmentSvc.ListForParticipant(c.Request.Context(), claims.UserID, c.Param("competition"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownCompetition) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"enrollments": enrollments})
}

// EnterSession godoc
// POST /api/v1/portal/quizzes/:quiz_id/session
// Opens or resumes the participant's attempt. The first entry consumes an
// attempt and pins the window.
func (h *PortalHandler) EnterSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	snap, err := h.sessionSvc.Enter(c.Request.Context(), claims.UserID, quizID)
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// SessionState godoc
// GET /api/v1/portal/quizzes/:quiz_id/session
// Rebuilds the session snapshot for reload recovery. Remaining time is
// recomputed server-side.
func (h *PortalHandler) SessionState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	snap, err := h.sessionSvc.State(c.Request.Context(), claims.UserID, quizID)
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// QuestionPaper godoc
// GET /api/v1/portal/quizzes/:quiz_id/paper?language=python
// Returns the sanitized question payload. Only reachable with a live attempt
// inside its window.
func (h *PortalHandler) QuestionPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	snap, err := h.sessionSvc.State(c.Request.Context(), claims.UserID, quizID)
	if err != nil {
		h.failSession(c, err)
		return
	}
	if snap.RemainingSeconds <= 0 {
		response.Fail(c, http.StatusForbidden, response.ErrQuizEnded)
		return
	}

	questions, err := h.quizSvc.SanitizedQuestions(c.Request.Context(), quizID, c.Query("language"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if len(questions) == 0 {
		response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"questions": questions,
		"session":   snap,
	})
}

// Submit godoc
// POST /api/v1/portal/quizzes/:quiz_id/submit
// Manual submission over HTTP. The WebSocket proctor stream is the preferred
// path; this endpoint backs it up when the socket is gone.
func (h *PortalHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	var req model.SubmitQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.submissionSvc.Submit(c.Request.Context(), claims.UserID, quizID, model.SubmitReasonManual, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionInFlight),
			errors.Is(err, service.ErrNoActiveAttempt):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrNotEnrolled):
			response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"submission": sub})
}

// MyResult godoc
// GET /api/v1/portal/quizzes/:quiz_id/result
// Returns the participant's own latest submission.
func (h *PortalHandler) MyResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	sub, err := h.submissionSvc.Result(c.Request.Context(), claims.UserID, quizID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"submission": sub})
}

// MiragePage godoc
// GET /api/v1/portal/mirage-pages/:page_id
// Serves a stored mirage document for the preview and compile pages.
func (h *PortalHandler) MiragePage(c *gin.Context) {
	pageID, err := uuid.Parse(c.Param("page_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, err := h.submissionSvc.MiragePage(c.Request.Context(), pageID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, page.FullHTML)
}

// failSession maps session-layer errors to response codes.
func (h *PortalHandler) failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
	case errors.Is(err, repository.ErrAttemptExhausted):
		response.Fail(c, http.StatusForbidden, response.ErrAttemptExhausted)
	case errors.Is(err, schedule.ErrNotConfigured):
		response.Fail(c, http.StatusConflict, response.ErrQuizNotConfigured)
	case errors.Is(err, service.ErrQuizNotStarted):
		response.Fail(c, http.StatusForbidden, response.ErrQuizNotStarted)
	case errors.Is(err, service.ErrQuizEnded):
		response.Fail(c, http.StatusForbidden, response.ErrQuizEnded)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
