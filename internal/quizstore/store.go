// Package quizstore keeps generated quizzes in process memory until they
// expire. Nothing here is persisted; a restart drops every session.
package quizstore

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/model"
)

const (
	DefaultTTL       = 30 * time.Minute
	DefaultReviewTTL = 15 * time.Minute
)

type entry struct {
	questions []model.QuizQuestion
	expiry    *time.Timer
	review    *time.Timer // set on first grading
}

// Store maps quiz ids to their questions. Each session is removed by a timer
// ttl after creation, and by a second timer reviewTTL after its first grading;
// whichever fires first wins.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*entry
	ttl       time.Duration
	reviewTTL time.Duration
	closed    bool
	log       zerolog.Logger
}

// New creates an empty Store. Non-positive durations fall back to the defaults.
func New(ttl, reviewTTL time.Duration, log zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if reviewTTL <= 0 {
		reviewTTL = DefaultReviewTTL
	}
	return &Store{
		sessions:  make(map[string]*entry),
		ttl:       ttl,
		reviewTTL: reviewTTL,
		log:       log,
	}
}

// Create stores questions under a fresh time-ordered id and schedules expiry.
func (s *Store) Create(questions []model.QuizQuestion) string {
	id := newID()

	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{questions: questions}
	if !s.closed {
		e.expiry = time.AfterFunc(s.ttl, func() { s.expire(id, "expired") })
	}
	s.sessions[id] = e

	s.log.Debug().Str("quiz_id", id).Int("questions", len(questions)).Msg("Quiz stored")
	return id
}

// Get returns the questions for id. It never extends the session's lifetime.
func (s *Store) Get(id string) ([]model.QuizQuestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return e.questions, true
}

// Delete removes id and stops its timers. Deleting a missing id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return
	}
	stopTimers(e)
	delete(s.sessions, id)
}

// MarkGraded schedules the post-grading expiry. Only the first call for a
// session has an effect; the creation timer keeps running.
func (s *Store) MarkGraded(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || e.review != nil || s.closed {
		return
	}
	e.review = time.AfterFunc(s.reviewTTL, func() { s.expire(id, "removed after review period") })
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops every pending timer. Sessions stay readable until the process
// exits, but nothing new is scheduled.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, e := range s.sessions {
		stopTimers(e)
	}
}

func (s *Store) expire(id, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return
	}
	stopTimers(e)
	delete(s.sessions, id)
	s.log.Info().Str("quiz_id", id).Msg("Quiz " + reason)
}

func stopTimers(e *entry) {
	if e.expiry != nil {
		e.expiry.Stop()
	}
	if e.review != nil {
		e.review.Stop()
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source does.
		return uuid.NewString()
	}
	return id.String()
}
