package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/gemini"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/response"
)

const (
	DefaultDifficulty    = "medium"
	DefaultQuestionCount = 5
	MaxQuestionCount     = 20
)

// ErrQuizFormat means the generator answered but not with a usable question array.
var ErrQuizFormat = errors.New("generated quiz is not a valid question array")

var (
	quizArrayPattern = regexp.MustCompile(`\[\s*\{[\s\S]*\}\s*\]`)
	fenceOpen        = regexp.MustCompile("(?m)^```(json)?\\s+")
	fenceClose       = regexp.MustCompile("(?m)\\s+```$")

	validDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true, "expert": true}
)

// programmingTopics gates which topics may be turned into a quiz.
var programmingTopics = []string{
	"javascript", "python", "java", "c#", "c++", "php", "ruby", "swift", "kotlin", "rust",
	"golang", "typescript", "react", "angular", "vue", "node.js", "express", "django", "flask",
	"spring", "html", "css", "sass", "less", "sql", "mongodb", "postgresql", "mysql",
	"database", "data structure", "algorithm", "programming", "software", "development",
	"web development", "mobile development", "frontend", "backend", "full stack",
	"devops", "git", "docker", "kubernetes", "aws", "azure", "cloud computing",
	"machine learning", "artificial intelligence", "deep learning", "cybersecurity",
	"networking", "api", "testing", "debugging", "design patterns", "object-oriented",
	"functional programming", "agile", "scrum", "code", "coding", "compiler", "interpreter",
	"framework", "library", "package", "module", "component", "rest api", "graphql",
	"microservices", "architecture", "operating system", "linux", "unix", "windows",
	"embedded systems", "blockchain", "game development", "unity", "unreal engine",
}

// QuizStore holds generated quizzes between requests.
type QuizStore interface {
	Create(questions []model.QuizQuestion) string
	Get(id string) ([]model.QuizQuestion, bool)
	MarkGraded(id string)
}

// QuizService generates, grades and hints AI quizzes.
type QuizService struct {
	gen   gemini.Generator
	store QuizStore
	log   zerolog.Logger
}

func NewQuizService(gen gemini.Generator, store QuizStore, log zerolog.Logger) *QuizService {
	return &QuizService{
		gen:   gen,
		store: store,
		log:   log.With().Str("component", "quiz_service").Logger(),
	}
}

// ─── Generation ───────────────────────────────────────────────────────

// GenerateQuiz asks the generator for a quiz, repairs it, stores it and
// returns the answer-free view.
func (s *QuizService) GenerateQuiz(ctx context.Context, req model.GenerateQuizRequest) (*model.GeneratedQuiz, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, response.BadRequest("Topic is required")
	}
	if !IsProgrammingTopic(topic) {
		return nil, response.NewAppError(response.KindBadRequest, response.ErrTopicNotAllowed, "", nil)
	}

	difficulty := NormalizeDifficulty(req.Difficulty)
	count := ClampQuestionCount(req.NumberOfQuestions)

	raw, err := s.gen.GenerateContent(ctx, BuildQuizPrompt(topic, difficulty, count))
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	questions, err := s.parseQuestions(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("topic", topic).Msg("Generated quiz could not be parsed")
		return nil, err
	}

	id := s.store.Create(questions)
	s.log.Info().
		Str("quiz_id", id).
		Str("topic", topic).
		Str("difficulty", difficulty).
		Int("questions", len(questions)).
		Msg("Quiz generated")

	return &model.GeneratedQuiz{
		QuizID:        id,
		Topic:         topic,
		Difficulty:    difficulty,
		QuestionCount: len(questions),
		Quiz:          Redact(questions),
	}, nil
}

// IsProgrammingTopic matches topic against the allow-list by substring in
// either direction, ignoring case.
func IsProgrammingTopic(topic string) bool {
	t := strings.ToLower(strings.TrimSpace(topic))
	if t == "" {
		return false
	}
	for _, p := range programmingTopics {
		if strings.Contains(t, p) || strings.Contains(p, t) {
			return true
		}
	}
	return false
}

// NormalizeDifficulty lowercases d and falls back to medium for anything
// outside easy, medium, hard and expert.
func NormalizeDifficulty(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if validDifficulties[d] {
		return d
	}
	return DefaultDifficulty
}

// ClampQuestionCount applies the default of 5 and the ceiling of 20.
func ClampQuestionCount(n *int) int {
	if n == nil || *n < 1 {
		return DefaultQuestionCount
	}
	if *n > MaxQuestionCount {
		return MaxQuestionCount
	}
	return *n
}

// BuildQuizPrompt renders the generation prompt.
func BuildQuizPrompt(topic, difficulty string, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a %s difficulty quiz with %d multiple-choice questions about %s.\n", difficulty, count, topic)
	sb.WriteString("For each question, provide 4 options (labeled A, B, C, D) and indicate the correct answer.\n")
	sb.WriteString("Format your response as a valid JSON array with this structure:\n")
	sb.WriteString(`[
  {
    "question": "Question text here?",
    "options": {
      "A": "First option",
      "B": "Second option",
      "C": "Third option",
      "D": "Fourth option"
    },
    "correctAnswer": "A",
    "explanation": "Brief explanation why this is the correct answer"
  }
]
`)
	sb.WriteString("Make sure the response is valid JSON with no additional text before or after.")
	return sb.String()
}

// generatedQuestion is the lenient shape the generator is asked to produce.
type generatedQuestion struct {
	Question      string                 `json:"question"`
	Options       map[string]interface{} `json:"options"`
	CorrectAnswer interface{}            `json:"correctAnswer"`
	Explanation   string                 `json:"explanation"`
}

// parseQuestions finds the JSON array in raw and repairs each question.
func (s *QuizService) parseQuestions(raw string) ([]model.QuizQuestion, error) {
	jsonStr := raw
	if m := quizArrayPattern.FindString(raw); m != "" {
		jsonStr = m
	}

	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(jsonStr), &generated); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuizFormat, err)
	}
	if len(generated) == 0 {
		return nil, fmt.Errorf("%w: empty array", ErrQuizFormat)
	}

	questions := make([]model.QuizQuestion, 0, len(generated))
	for i, g := range generated {
		questions = append(questions, s.repair(i, g))
	}
	return questions, nil
}

func (s *QuizService) repair(index int, g generatedQuestion) model.QuizQuestion {
	label, _ := g.CorrectAnswer.(string)

	if g.Question == "" || len(g.Options) == 0 || label == "" || g.Explanation == "" {
		s.log.Warn().Int("question", index).Msg("Quiz question is missing required fields")
	}

	options, ok := completeOptions(g.Options)
	if !ok {
		s.log.Warn().Int("question", index).Msg("Quiz question has invalid options, using placeholders")
		options = placeholderOptions()
	}

	label = strings.ToUpper(strings.TrimSpace(label))
	if !isOptionLabel(label) {
		s.log.Warn().Int("question", index).Interface("correct_answer", g.CorrectAnswer).Msg("Invalid correctAnswer, defaulting to A")
		label = "A"
	}

	return model.QuizQuestion{
		Question:      g.Question,
		Options:       options,
		CorrectAnswer: label,
		Explanation:   g.Explanation,
	}
}

// completeOptions converts opts to strings and reports whether all four
// labels are present.
func completeOptions(opts map[string]interface{}) (map[string]string, bool) {
	out := make(map[string]string, len(opts))
	for k, v := range opts {
		if str, ok := v.(string); ok {
			out[k] = str
		} else {
			out[k] = fmt.Sprint(v)
		}
	}
	for _, l := range model.OptionLabels {
		if _, ok := out[l]; !ok {
			return nil, false
		}
	}
	return out, true
}

func placeholderOptions() map[string]string {
	out := make(map[string]string, len(model.OptionLabels))
	for _, l := range model.OptionLabels {
		out[l] = "Option " + l
	}
	return out
}

func isOptionLabel(l string) bool {
	for _, v := range model.OptionLabels {
		if l == v {
			return true
		}
	}
	return false
}

// Redact strips answers and explanations for the learner's view.
func Redact(questions []model.QuizQuestion) []model.QuizQuestionView {
	views := make([]model.QuizQuestionView, len(questions))
	for i, q := range questions {
		views[i] = model.QuizQuestionView{ID: i, Question: q.Question, Options: q.Options}
	}
	return views
}

// ─── Grading ──────────────────────────────────────────────────────────

// CheckAnswers grades a submission against a stored quiz and starts the
// post-grading expiry.
func (s *QuizService) CheckAnswers(ctx context.Context, req model.CheckAnswersRequest) (*model.GradeReport, error) {
	quizID := string(req.QuizID)
	if quizID == "" || !req.Answers.Present {
		return nil, response.BadRequest("Quiz ID and answers are required")
	}

	questions, ok := s.store.Get(quizID)
	if !ok {
		return nil, response.NotFound("Quiz not found. It may have expired or been completed already.")
	}

	report := Grade(questions, req.Answers.Items)
	s.store.MarkGraded(quizID)

	s.log.Info().
		Str("quiz_id", quizID).
		Str("score", report.Score).
		Int("answers", len(req.Answers.Items)).
		Msg("Quiz graded")
	return report, nil
}

// Grade scores answers against questions. Answers pointing outside the quiz
// are reported as invalid and skipped.
func Grade(questions []model.QuizQuestion, answers []model.AnswerSubmission) *model.GradeReport {
	results := make([]model.AnswerResult, 0, len(answers))
	correct := 0

	for _, a := range answers {
		if a.BadID || a.QuestionID < 0 || a.QuestionID >= len(questions) {
			results = append(results, model.AnswerResult{
				Valid:      false,
				Message:    "Question does not exist",
				QuestionID: a.QuestionID,
			})
			continue
		}

		q := questions[a.QuestionID]
		want := strings.ToUpper(q.CorrectAnswer)
		isCorrect := a.Answer == want
		if isCorrect {
			correct++
		}

		correctOption, ok := q.Options[want]
		if !ok || correctOption == "" {
			correctOption = "Option " + want
		}

		results = append(results, model.AnswerResult{
			Valid:           true,
			QuestionID:      a.QuestionID,
			Question:        q.Question,
			UserAnswer:      a.Answer,
			IsCorrect:       isCorrect,
			CorrectAnswer:   want,
			CorrectOption:   q.Options[want],
			Explanation:     q.Explanation,
			Options:         q.Options,
			FeedbackMessage: feedback(isCorrect, want, correctOption, q.Explanation),
		})
	}

	score := 0.0
	if len(questions) > 0 {
		score = float64(correct) / float64(len(questions)) * 100
	}

	return &model.GradeReport{
		Score:              formatScore(score),
		CorrectCount:       correct,
		TotalQuestions:     len(questions),
		PerformanceMessage: PerformanceMessage(score),
		Results:            results,
		AnsweredAll:        len(answers) == len(questions),
	}
}

// formatScore renders one decimal, rounding ties away from zero.
func formatScore(score float64) string {
	return fmt.Sprintf("%.1f", math.Floor(score*10+0.5)/10)
}

// PerformanceMessage picks the summary line for a percentage score.
func PerformanceMessage(score float64) string {
	switch {
	case score >= 90:
		return "Excellent! You've mastered this topic."
	case score >= 70:
		return "Very good! You have a solid understanding of this topic."
	case score >= 50:
		return "Good effort! Review the explanations to improve your understanding."
	default:
		return "Keep practicing! Review the explanations to strengthen your knowledge."
	}
}

func feedback(isCorrect bool, label, option, explanation string) string {
	if isCorrect {
		return "✅ Correct! " + explanation
	}
	return fmt.Sprintf("❌ Not quite. The correct answer is %s: %s. %s", label, option, explanation)
}

// ─── Hints ────────────────────────────────────────────────────────────

// GetHint asks the generator for a nudge toward one question's answer.
func (s *QuizService) GetHint(ctx context.Context, req model.HintRequest) (*model.QuizHint, error) {
	quizID := string(req.QuizID)
	if quizID == "" || req.QuestionIndex == nil {
		return nil, response.BadRequest("Quiz ID and question index are required")
	}

	questions, ok := s.store.Get(quizID)
	if !ok {
		return nil, response.NotFound("Quiz not found. It may have expired.")
	}

	idx := *req.QuestionIndex
	if idx < 0 || idx >= len(questions) {
		return nil, response.BadRequest("Invalid question index.")
	}

	q := questions[idx]
	hint, err := s.gen.GenerateContent(ctx, BuildHintPrompt(q))
	if err != nil {
		return nil, fmt.Errorf("generate hint: %w", err)
	}

	return &model.QuizHint{
		QuestionIndex: idx,
		Question:      q.Question,
		Hint:          strings.TrimSpace(hint),
	}, nil
}

// BuildHintPrompt renders the hint prompt for q.
func BuildHintPrompt(q model.QuizQuestion) string {
	var sb strings.Builder
	sb.WriteString("I need a hint for this question without revealing the answer directly:\n")
	fmt.Fprintf(&sb, "Question: %s\n", q.Question)
	sb.WriteString("Options:\n")
	for _, l := range model.OptionLabels {
		fmt.Fprintf(&sb, "%s: %s\n", l, q.Options[l])
	}
	fmt.Fprintf(&sb, "\nThe correct answer is %s: %s.\n\n", q.CorrectAnswer, q.Options[q.CorrectAnswer])
	sb.WriteString("Please provide a subtle hint that guides the user towards the correct answer without explicitly stating it.\n")
	sb.WriteString("The hint should be one or two sentences maximum.")
	return sb.String()
}

// ─── Fun-fact quiz ────────────────────────────────────────────────────

const kaboomPrompt = `Generate 10 multiple-choice questions about random fun facts in this world in Bahasa Indonesia.
For each question, provide 4 options and indicate the index (0-based) of the correct answer.
Format the response as a JSON object with this exact structure:
{
  "questions": [
    { "question": "question text in Bahasa Indonesia", "choices": ["option1", "option2", "option3", "option4"], "correctAnswer": correctAnswerIndex }
  ]
}
Only return the JSON, nothing else. Make sure all questions and options are written in Bahasa Indonesia.`

// GenerateKaboomQuiz produces the ten-question fun-fact game. When the
// generator is rate limited the built-in question set is served instead.
func (s *QuizService) GenerateKaboomQuiz(ctx context.Context) (*model.KaboomQuiz, error) {
	raw, err := s.gen.GenerateContent(ctx, kaboomPrompt)
	if err != nil {
		if errors.Is(err, gemini.ErrRateLimited) {
			s.log.Warn().Msg("Generator rate limited, serving fallback fun-fact quiz")
			return FallbackKaboomQuiz(), nil
		}
		return nil, fmt.Errorf("generate fun-fact quiz: %w", err)
	}

	quiz, err := ParseKaboomQuiz(raw)
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

// ParseKaboomQuiz strips markdown code fences and decodes the quiz object.
func ParseKaboomQuiz(raw string) (*model.KaboomQuiz, error) {
	cleaned := fenceOpen.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = fenceClose.ReplaceAllString(cleaned, "")

	var quiz model.KaboomQuiz
	if err := json.Unmarshal([]byte(cleaned), &quiz); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuizFormat, err)
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrQuizFormat)
	}
	return &quiz, nil
}
