package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// OptionLabels are the fixed answer labels of a generated question.
var OptionLabels = []string{"A", "B", "C", "D"}

// QuizQuestion is one generated multiple-choice question, including its answer.
type QuizQuestion struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correctAnswer"`
	Explanation   string            `json:"explanation"`
}

// QuizQuestionView is what the learner sees: no answer, no explanation.
type QuizQuestionView struct {
	ID       int               `json:"id"`
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
}

// GenerateQuizRequest is the payload for POST /gemini/generate-quiz.
type GenerateQuizRequest struct {
	Topic             string `json:"topic"`
	Difficulty        string `json:"difficulty"`
	NumberOfQuestions *int   `json:"numberOfQuestions"`
}

// GeneratedQuiz is returned after a quiz session is created.
type GeneratedQuiz struct {
	QuizID        string             `json:"quizId"`
	Topic         string             `json:"topic"`
	Difficulty    string             `json:"difficulty"`
	QuestionCount int                `json:"questionCount"`
	Quiz          []QuizQuestionView `json:"quiz"`
}

// AnswerResult is the graded outcome of one submitted answer.
type AnswerResult struct {
	Valid           bool              `json:"valid"`
	Message         string            `json:"message,omitempty"`
	QuestionID      int               `json:"questionId"`
	Question        string            `json:"question,omitempty"`
	UserAnswer      string            `json:"userAnswer,omitempty"`
	IsCorrect       bool              `json:"isCorrect"`
	CorrectAnswer   string            `json:"correctAnswer,omitempty"`
	CorrectOption   string            `json:"correctOption,omitempty"`
	Explanation     string            `json:"explanation,omitempty"`
	Options         map[string]string `json:"options,omitempty"`
	FeedbackMessage string            `json:"feedbackMessage,omitempty"`
}

// GradeReport is the response body of a grading pass.
type GradeReport struct {
	Score              string         `json:"score"`
	CorrectCount       int            `json:"correctCount"`
	TotalQuestions     int            `json:"totalQuestions"`
	PerformanceMessage string         `json:"performanceMessage"`
	Results            []AnswerResult `json:"results"`
	AnsweredAll        bool           `json:"answeredAll"`
}

// QuizHint is a generated nudge for one question.
type QuizHint struct {
	QuestionIndex int    `json:"questionIndex"`
	Question      string `json:"question"`
	Hint          string `json:"hint"`
}

// KaboomQuestion is a fun-fact question with positional choices.
type KaboomQuestion struct {
	Question      string   `json:"question"`
	Choices       []string `json:"choices"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// KaboomQuiz is the payload of the fun-fact quiz game.
type KaboomQuiz struct {
	Questions []KaboomQuestion `json:"questions"`
	Source    string           `json:"source,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// QuizRef is a quiz id that clients may send as a JSON string or number.
type QuizRef string

func (r *QuizRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = QuizRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	// A numeric zero counts as absent, like null.
	if f, err := n.Float64(); err == nil && f == 0 {
		*r = ""
		return nil
	}
	*r = QuizRef(n.String())
	return nil
}

// AnswerSubmission is one graded answer after normalization.
type AnswerSubmission struct {
	QuestionID int
	Answer     string // trimmed and uppercased
	BadID      bool   // questionId was present but not a number
}

// AnswerList accepts a bare label, a {questionId|id, answer} object, or an
// array mixing both. Bare labels inside an array are matched to questions by
// position.
type AnswerList struct {
	Items   []AnswerSubmission
	Present bool
}

func (l *AnswerList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*l = AnswerList{}

	if isFalsyJSON(b) {
		return nil
	}
	l.Present = true

	if b[0] != '[' {
		item, err := parseAnswer(b, 0)
		if err != nil {
			return err
		}
		l.Items = []AnswerSubmission{item}
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(b, &elems); err != nil {
		return err
	}
	l.Items = make([]AnswerSubmission, 0, len(elems))
	for i, el := range elems {
		item, err := parseAnswer(el, i)
		if err != nil {
			return err
		}
		l.Items = append(l.Items, item)
	}
	return nil
}

func parseAnswer(b json.RawMessage, position int) (AnswerSubmission, error) {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) > 0 && b[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b, &obj); err != nil {
			return AnswerSubmission{}, err
		}
		sub := AnswerSubmission{}
		rawID, ok := obj["questionId"]
		if !ok {
			rawID, ok = obj["id"]
		}
		if ok {
			id, valid := parseQuestionID(rawID)
			sub.QuestionID = id
			sub.BadID = !valid
		}
		if rawAns, ok := obj["answer"]; ok {
			sub.Answer = normalizeLabel(scalarText(rawAns))
		}
		return sub, nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return AnswerSubmission{}, err
		}
		return AnswerSubmission{QuestionID: position, Answer: normalizeLabel(s)}, nil
	default:
		return AnswerSubmission{QuestionID: position, Answer: normalizeLabel(scalarText(b))}, nil
	}
}

// parseQuestionID reads an integer index from a JSON number or numeric string.
// Fractions are truncated.
func parseQuestionID(raw json.RawMessage) (int, bool) {
	text := scalarText(raw)
	if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// scalarText returns a JSON string's content, or the raw literal otherwise.
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func normalizeLabel(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func isFalsyJSON(b []byte) bool {
	switch string(b) {
	case "", "null", "false", `""`, "0":
		return true
	}
	return false
}

// CheckAnswersRequest is the payload for POST /gemini/check-answers.
type CheckAnswersRequest struct {
	QuizID  QuizRef    `json:"quizId"`
	Answers AnswerList `json:"answers"`
}

// HintRequest is the payload for POST /gemini/get-hint.
type HintRequest struct {
	QuizID        QuizRef `json:"quizId"`
	QuestionIndex *int    `json:"questionIndex"`
}
