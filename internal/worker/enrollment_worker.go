package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/config"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/repository"
)

const (
	EnrollmentBatchSize    = 50
	EnrollmentBatchTimeout = 2 * time.Second
	EnrollmentPollTimeout  = 1 * time.Second
)

// EnrollmentStore applies enrollment counts to courses.
type EnrollmentStore interface {
	IncrementEnrollment(ctx context.Context, courseID, delta int) error
	BulkIncrementEnrollment(ctx context.Context, deltas map[int]int) error
}

// CacheInvalidator drops cached course payloads.
type CacheInvalidator interface {
	InvalidateCourses(ctx context.Context, ids ...int)
}

// EnrollmentWorker drains paid-order enrollment jobs from Redis and adds them
// to each course's total_enrollment in batches.
type EnrollmentWorker struct {
	rdb     *redis.Client
	courses EnrollmentStore
	cache   CacheInvalidator
	log     zerolog.Logger
	requeue func(ctx context.Context, job model.EnrollmentJob) error
}

func NewEnrollmentWorker(rdb *redis.Client, courses EnrollmentStore, cache CacheInvalidator, log zerolog.Logger) *EnrollmentWorker {
	w := &EnrollmentWorker{
		rdb:     rdb,
		courses: courses,
		cache:   cache,
		log:     log.With().Str("component", "enrollment_worker").Logger(),
	}
	w.requeue = w.pushBack
	return w
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *EnrollmentWorker) Start(ctx context.Context) {
	w.log.Info().Msg("EnrollmentWorker started")

	batch := make([]model.EnrollmentJob, 0, EnrollmentBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= EnrollmentBatchSize || time.Since(lastFlush) >= EnrollmentBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, EnrollmentPollTimeout, config.WorkerKey.EnrollmentQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			job, err := decodeJob(item[1])
			if err != nil {
				w.log.Error().Err(err).Str("payload", item[1]).Msg("Invalid enrollment payload")
				continue
			}
			batch = append(batch, job)
		}
	}
}

func decodeJob(raw string) (model.EnrollmentJob, error) {
	var job model.EnrollmentJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return job, err
	}
	if job.CourseID <= 0 {
		return job, errors.New("course_id must be positive")
	}
	if job.Quantity <= 0 {
		job.Quantity = 1
	}
	return job, nil
}

// ----------------------------------------------------------------
// Batch apply with per-course fallback
// ----------------------------------------------------------------

// aggregate sums quantities per course.
func aggregate(batch []model.EnrollmentJob) map[int]int {
	deltas := make(map[int]int, len(batch))
	for _, job := range batch {
		deltas[job.CourseID] += job.Quantity
	}
	return deltas
}

func (w *EnrollmentWorker) flushSafe(ctx context.Context, batch []model.EnrollmentJob) {
	if len(batch) == 0 {
		return
	}

	deltas := aggregate(batch)
	applied := make([]int, 0, len(deltas))

	if err := w.courses.BulkIncrementEnrollment(ctx, deltas); err != nil {
		w.log.Warn().Err(err).Int("courses", len(deltas)).Msg("Bulk enrollment update failed, using fallback")

		for courseID, delta := range deltas {
			err := w.courses.IncrementEnrollment(ctx, courseID, delta)
			switch {
			case err == nil:
				applied = append(applied, courseID)
			case errors.Is(err, repository.ErrNotFound):
				w.log.Warn().Int("course_id", courseID).Msg("Enrollment for unknown course dropped")
			default:
				w.log.Error().Err(err).Int("course_id", courseID).Msg("Enrollment update failed, requeueing")
				job := model.EnrollmentJob{CourseID: courseID, Quantity: delta}
				if err := w.requeue(ctx, job); err != nil {
					w.log.Error().Err(err).Int("course_id", courseID).Int("quantity", delta).Msg("Requeue failed, enrollment lost")
				}
			}
		}
	} else {
		for courseID := range deltas {
			applied = append(applied, courseID)
		}
	}

	if len(applied) > 0 && w.cache != nil {
		w.cache.InvalidateCourses(ctx, applied...)
	}
	w.log.Debug().Int("jobs", len(batch)).Int("courses", len(applied)).Msg("Enrollment batch applied")
}

func (w *EnrollmentWorker) pushBack(ctx context.Context, job model.EnrollmentJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return w.rdb.RPush(ctx, config.WorkerKey.EnrollmentQueue, raw).Err()
}
