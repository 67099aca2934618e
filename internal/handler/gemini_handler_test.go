package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stemsi/kodemy-backend/internal/gemini"
	"github.com/stemsi/kodemy-backend/internal/model"
)

const twoQuestionReply = "```json\n" + `[
  {"question":"What is a goroutine?","options":{"A":"A lightweight thread","B":"A package","C":"A type","D":"A keyword"},"correctAnswer":"A","explanation":"Scheduled by the runtime."},
  {"question":"What does defer do?","options":{"A":"Exits","B":"Panics","C":"Loops","D":"Runs at return"},"correctAnswer":"D","explanation":"Deferred calls run when the function returns."}
]` + "\n```"

func (e *testEnv) generateQuiz() model.GeneratedQuiz {
	e.t.Helper()
	e.gen.reply = twoQuestionReply
	w := e.do(http.MethodPost, "/gemini/generate-quiz", "", map[string]interface{}{
		"topic":             "golang",
		"difficulty":        "easy",
		"numberOfQuestions": 2,
	})
	if w.Code != http.StatusOK {
		e.t.Fatalf("generate status = %d (%s)", w.Code, w.Body.String())
	}
	env := decode(e.t, w)
	if env.Message != "Quiz generated successfully" {
		e.t.Errorf("message = %q", env.Message)
	}
	var quiz model.GeneratedQuiz
	decodeData(e.t, env, &quiz)
	return quiz
}

func TestGenerateQuizHidesAnswers(t *testing.T) {
	env := newTestEnv(t)
	quiz := env.generateQuiz()

	if quiz.QuizID == "" || quiz.QuestionCount != 2 || len(quiz.Quiz) != 2 {
		t.Fatalf("quiz = %+v", quiz)
	}
	w := env.do(http.MethodPost, "/gemini/generate-quiz", "", map[string]string{"topic": "golang"})
	if strings.Contains(w.Body.String(), "correctAnswer") {
		t.Fatal("correctAnswer must not be sent before grading")
	}
}

func TestGenerateQuizErrors(t *testing.T) {
	env := newTestEnv(t)

	expectError(t, env.do(http.MethodPost, "/gemini/generate-quiz", "", map[string]string{}), http.StatusBadRequest, "BAD_REQUEST")
	expectError(t, env.do(http.MethodPost, "/gemini/generate-quiz", "", map[string]string{"topic": "cooking"}), http.StatusBadRequest, "TOPIC_NOT_ALLOWED")

	env.gen.reply = "I cannot help with that."
	expectError(t, env.do(http.MethodPost, "/gemini/generate-quiz", "", map[string]string{"topic": "python"}), http.StatusInternalServerError, "QUIZ_FORMAT_ERROR")

	env.gen.err = errors.New("upstream exploded")
	expectError(t, env.do(http.MethodPost, "/gemini/generate-quiz", "", map[string]string{"topic": "python"}), http.StatusInternalServerError, "INTERNAL_ERROR")
}

func TestCheckAnswers(t *testing.T) {
	env := newTestEnv(t)
	quiz := env.generateQuiz()

	w := env.do(http.MethodPost, "/gemini/check-answers", "", map[string]interface{}{
		"quizId":  quiz.QuizID,
		"answers": []string{"A", "B"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	e := decode(t, w)
	if e.Message != "Quiz answers checked successfully" {
		t.Errorf("message = %q", e.Message)
	}
	var report model.GradeReport
	decodeData(t, e, &report)
	if report.Score != "50.0" || report.CorrectCount != 1 || report.TotalQuestions != 2 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Results) != 2 || report.Results[1].CorrectAnswer != "D" {
		t.Errorf("results = %+v", report.Results)
	}
}

func TestCheckAnswersErrors(t *testing.T) {
	env := newTestEnv(t)

	expectError(t, env.do(http.MethodPost, "/gemini/check-answers", "", map[string]string{"quizId": "abc"}), http.StatusBadRequest, "BAD_REQUEST")
	expectError(t, env.do(http.MethodPost, "/gemini/check-answers", "", map[string]interface{}{
		"quizId":  "missing",
		"answers": []string{"A"},
	}), http.StatusNotFound, "NOT_FOUND")
}

func TestGetHint(t *testing.T) {
	env := newTestEnv(t)
	quiz := env.generateQuiz()

	env.gen.reply = "Think about what runs when a function ends."
	w := env.do(http.MethodPost, "/gemini/get-hint", "", map[string]interface{}{"quizId": quiz.QuizID, "questionIndex": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	var hint model.QuizHint
	decodeData(t, decode(t, w), &hint)
	if hint.QuestionIndex != 1 || hint.Hint == "" || hint.Question != "What does defer do?" {
		t.Errorf("hint = %+v", hint)
	}

	w = env.do(http.MethodPost, "/gemini/get-hint", "", map[string]interface{}{"quizId": quiz.QuizID, "questionIndex": 7})
	expectError(t, w, http.StatusBadRequest, "BAD_REQUEST")
}

func TestGenerateKaboomQuizFallback(t *testing.T) {
	env := newTestEnv(t)
	env.gen.err = fmt.Errorf("quota: %w", gemini.ErrRateLimited)

	w := env.do(http.MethodGet, "/gemini/generate-quiz-kaboom", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	var quiz model.KaboomQuiz
	decodeData(t, decode(t, w), &quiz)
	if len(quiz.Questions) != 10 {
		t.Errorf("fallback has %d questions, want 10", len(quiz.Questions))
	}
}

func TestGenerateKaboomQuiz(t *testing.T) {
	env := newTestEnv(t)
	env.gen.reply = `{"questions":[{"question":"Which planet is largest?","choices":["Mars","Jupiter","Venus","Earth"],"correctAnswer":1}]}`

	w := env.do(http.MethodGet, "/gemini/generate-quiz-kaboom", "", nil)
	var quiz model.KaboomQuiz
	decodeData(t, decode(t, w), &quiz)
	if len(quiz.Questions) != 1 || quiz.Questions[0].CorrectAnswer != 1 {
		t.Errorf("quiz = %+v", quiz)
	}
}
