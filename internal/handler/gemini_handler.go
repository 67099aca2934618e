package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/response"
	"github.com/stemsi/kodemy-backend/internal/service"
)

// GeminiHandler exposes the AI quiz endpoints.
type GeminiHandler struct {
	quizService *service.QuizService
}

func NewGeminiHandler(quizService *service.QuizService) *GeminiHandler {
	return &GeminiHandler{quizService: quizService}
}

// GenerateQuiz godoc
// POST /gemini/generate-quiz
// A generator reply that is not a question array is answered here with a
// QUIZ_FORMAT_ERROR; generator failures go to the error handler.
func (h *GeminiHandler) GenerateQuiz(c *gin.Context) {
	var req model.GenerateQuizRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	quiz, err := h.quizService.GenerateQuiz(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrQuizFormat) {
			response.Fail(c, http.StatusInternalServerError, response.ErrQuizFormat)
			return
		}
		_ = c.Error(err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Quiz generated successfully", quiz)
}

// GenerateKaboomQuiz godoc
// GET /gemini/generate-quiz-kaboom
func (h *GeminiHandler) GenerateKaboomQuiz(c *gin.Context) {
	quiz, err := h.quizService.GenerateKaboomQuiz(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	if quiz.Message != "" {
		response.SuccessWithMessage(c, http.StatusOK, quiz.Message, quiz)
		return
	}
	response.Success(c, http.StatusOK, quiz)
}

// CheckAnswers godoc
// POST /gemini/check-answers
func (h *GeminiHandler) CheckAnswers(c *gin.Context) {
	var req model.CheckAnswersRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	report, err := h.quizService.CheckAnswers(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Quiz answers checked successfully", report)
}

// GetHint godoc
// POST /gemini/get-hint
func (h *GeminiHandler) GetHint(c *gin.Context) {
	var req model.HintRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	hint, err := h.quizService.GetHint(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, hint)
}
