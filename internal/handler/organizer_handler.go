package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spardha-tech/spardha-backend/internal/middleware"
	"github.com/spardha-tech/spardha-backend/internal/model"
	"github.com/spardha-tech/spardha-backend/internal/response"
	"github.com/spardha-tech/spardha-backend/internal/service"
	"github.com/spardha-tech/spardha-backend/internal/validator"
)

// OrganizerHandler handles the organizer console endpoints.
type OrganizerHandler struct {
	quizSvc       *service.QuizService
	submissionSvc *service.SubmissionService
}

// NewOrganizerHandler creates a new OrganizerHandler.
func NewOrganizerHandler(quizSvc *service.QuizService, submissionSvc *service.SubmissionService) *OrganizerHandler {
	return &OrganizerHandler{quizSvc: quizSvc, submissionSvc: submissionSvc}
}

// CreateQuiz godoc
// POST /api/v1/organizer/quizzes
func (h *OrganizerHandler) CreateQuiz(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizSvc.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		h.failQuiz(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz})
}

// UpdateSchedule godoc
// PUT /api/v1/organizer/quizzes/:quiz_id/schedule
func (h *OrganizerHandler) UpdateSchedule(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateScheduleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizSvc.UpdateSchedule(c.Request.Context(), claims.UserID, quizID, &req)
	if err != nil {
		h.failQuiz(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// AddQuestion godoc
// POST /api/v1/organizer/quizzes/:quiz_id/questions
func (h *OrganizerHandler) AddQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.quizSvc.AddQuestion(c.Request.Context(), claims.UserID, quizID, &req)
	if err != nil {
		h.failQuiz(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ListQuestions godoc
// GET /api/v1/organizer/quizzes/:quiz_id/questions?language=python
// Returns the full bank, correct answers included.
func (h *OrganizerHandler) ListQuestions(c *gin.Context) {
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	questions, err := h.quizSvc.Bank(c.Request.Context(), quizID, c.Query("language"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ListSubmissions godoc
// GET /api/v1/organizer/quizzes/:quiz_id/submissions
// Lists a quiz's submissions, best score first.
func (h *OrganizerHandler) ListSubmissions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	subs, err := h.submissionSvc.ListByQuiz(c.Request.Context(), claims.UserID, quizID)
	if err != nil {
		h.failQuiz(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"submissions": subs})
}

// GradeMirage godoc
// PUT /api/v1/organizer/submissions/:submission_id/grade
// Finalizes an ungraded code-mirage submission.
func (h *OrganizerHandler) GradeMirage(c *gin.Context) {
	claims := middleware.GetClaims(c)

	submissionID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GradeMirageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, gerr := h.submissionSvc.GradeMirage(c.Request.Context(), claims.UserID, submissionID, req.Score)
	if gerr != nil {
		if errors.Is(gerr, service.ErrNotAuthor) {
			response.Fail(c, http.StatusForbidden, response.ErrNotQuizAuthor)
			return
		}
		response.Fail(c, http.StatusConflict, response.ErrAlreadyGraded)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"submission": sub})
}

func (h *OrganizerHandler) failQuiz(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownCompetition):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrBadSchedule), errors.Is(err, service.ErrBadQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	case errors.Is(err, service.ErrNotAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotQuizAuthor)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
