package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/config"
	"github.com/stemsi/kodemy-backend/internal/database"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/repository"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.NewSQLite(dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}
}

func createUser(t *testing.T, users repository.UserRepository, email, name string) *model.User {
	t.Helper()
	u := &model.User{Email: email, Password: "x", FullName: name}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createCourse(t *testing.T, db *gorm.DB, title string, price int64) *model.Course {
	t.Helper()
	ctx := context.Background()
	cat := &model.Category{CatName: "Web", ProgLang: "JavaScript"}
	if err := repository.NewCategoryRepository(db).Create(ctx, cat); err != nil {
		t.Fatalf("create category: %v", err)
	}
	c := &model.Course{
		Title:         title,
		Price:         price,
		Rating:        4.5,
		StartDate:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Desc:          "desc",
		DurationHours: 10,
		CategoryID:    cat.ID,
	}
	if err := repository.NewCourseRepository(db).Create(ctx, c); err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}

// memoryCache records invalidations and serves whatever was set.
type memoryCache struct {
	mu          sync.Mutex
	courses     map[int]*model.Course
	categories  []model.Category
	invalidated []int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{courses: map[int]*model.Course{}}
}

func (m *memoryCache) GetCourse(_ context.Context, id int) (*model.Course, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	return c, ok
}

func (m *memoryCache) SetCourse(_ context.Context, c *model.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
}

func (m *memoryCache) InvalidateCourses(_ context.Context, ids ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.courses, id)
	}
	m.invalidated = append(m.invalidated, ids...)
}

func (m *memoryCache) GetCategories(_ context.Context) ([]model.Category, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categories, m.categories != nil
}

func (m *memoryCache) SetCategories(_ context.Context, cats []model.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = cats
}
