// Package cache stores read-mostly catalog data in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/config"
	"github.com/stemsi/kodemy-backend/internal/model"
)

// CourseCache caches course detail payloads and the category list. Redis
// failures are logged and treated as misses.
type CourseCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

func NewCourseCache(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CourseCache {
	return &CourseCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *CourseCache) GetCourse(ctx context.Context, id int) (*model.Course, bool) {
	var course model.Course
	if !c.get(ctx, config.CacheKey.CourseDetailKey(id), &course) {
		return nil, false
	}
	return &course, true
}

func (c *CourseCache) SetCourse(ctx context.Context, course *model.Course) {
	c.set(ctx, config.CacheKey.CourseDetailKey(course.ID), course)
}

// InvalidateCourses drops the cached detail of every listed course.
func (c *CourseCache) InvalidateCourses(ctx context.Context, ids ...int) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, config.CacheKey.CourseDetailKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Ints("course_ids", ids).Msg("Course cache invalidation failed")
	}
}

func (c *CourseCache) GetCategories(ctx context.Context) ([]model.Category, bool) {
	var cats []model.Category
	if !c.get(ctx, config.CacheKey.CategoryListKey(), &cats) {
		return nil, false
	}
	return cats, true
}

func (c *CourseCache) SetCategories(ctx context.Context, cats []model.Category) {
	c.set(ctx, config.CacheKey.CategoryListKey(), cats)
}

func (c *CourseCache) get(ctx context.Context, key string, dst interface{}) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache entry corrupt, ignoring")
		return false
	}
	return true
}

func (c *CourseCache) set(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
