package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/repository"
	"github.com/stemsi/kodemy-backend/internal/response"
)

const (
	DefaultCoursePage  = 1
	DefaultCourseLimit = 10
)

// CourseCache is the read-through cache in front of course lookups.
type CourseCache interface {
	GetCourse(ctx context.Context, id int) (*model.Course, bool)
	SetCourse(ctx context.Context, course *model.Course)
	InvalidateCourses(ctx context.Context, ids ...int)
	GetCategories(ctx context.Context) ([]model.Category, bool)
	SetCategories(ctx context.Context, cats []model.Category)
}

// CoursePage is one page of the catalog listing.
type CoursePage struct {
	Courses    []model.Course
	Pagination *response.Pagination
}

// CourseService serves the public catalog and course reviews.
type CourseService struct {
	courses    repository.CourseRepository
	categories repository.CategoryRepository
	reviews    repository.ReviewRepository
	users      repository.UserRepository
	cache      CourseCache
	log        zerolog.Logger
}

// NewCourseService creates a CourseService. cache may be nil.
func NewCourseService(
	courses repository.CourseRepository,
	categories repository.CategoryRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	cache CourseCache,
	log zerolog.Logger,
) *CourseService {
	if cache == nil {
		cache = noopCache{}
	}
	return &CourseService{
		courses:    courses,
		categories: categories,
		reviews:    reviews,
		users:      users,
		cache:      cache,
		log:        log.With().Str("component", "course_service").Logger(),
	}
}

// List returns a filtered, sorted page of courses.
func (s *CourseService) List(ctx context.Context, q model.CourseListQuery) (*CoursePage, error) {
	page := q.Page
	if page < 1 {
		page = DefaultCoursePage
	}
	limit := q.Limit
	if limit < 1 {
		limit = DefaultCourseLimit
	}

	courses, total, err := s.courses.List(ctx, repository.CourseFilter{
		Search:     strings.TrimSpace(q.Search),
		Sort:       q.Sort,
		CategoryID: q.CategoryID,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if courses == nil {
		courses = []model.Course{}
	}

	return &CoursePage{
		Courses: courses,
		Pagination: &response.Pagination{
			Page:       page,
			PerPage:    limit,
			PageData:   len(courses),
			TotalItems: int(total),
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

// GetByID returns a course with its category, served from cache when warm.
func (s *CourseService) GetByID(ctx context.Context, id int) (*model.Course, error) {
	if course, ok := s.cache.GetCourse(ctx, id); ok {
		return course, nil
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, response.NotFound("Course not found")
		}
		return nil, fmt.Errorf("get course: %w", err)
	}

	s.cache.SetCourse(ctx, course)
	return course, nil
}

// Categories returns every category.
func (s *CourseService) Categories(ctx context.Context) ([]model.Category, error) {
	if cats, ok := s.cache.GetCategories(ctx); ok {
		return cats, nil
	}

	cats, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if cats == nil {
		cats = []model.Category{}
	}

	s.cache.SetCategories(ctx, cats)
	return cats, nil
}

// Reviews lists the reviews of an existing course.
func (s *CourseService) Reviews(ctx context.Context, courseID int) ([]model.Review, error) {
	if _, err := s.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return reviews, nil
}

// AddReview records a review under the reviewer's display name.
func (s *CourseService) AddReview(ctx context.Context, courseID, userID int, req model.CreateReviewRequest) (*model.Review, error) {
	if _, err := s.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}

	review := &model.Review{
		Name:     user.FullName,
		Rating:   req.Rating,
		Desc:     req.Desc,
		CourseID: courseID,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

type noopCache struct{}

func (noopCache) GetCourse(context.Context, int) (*model.Course, bool) { return nil, false }
func (noopCache) SetCourse(context.Context, *model.Course) {}
func (noopCache) InvalidateCourses(context.Context, ...int) {}
func (noopCache) GetCategories(context.Context) ([]model.Category, bool) { return nil, false }
func (noopCache) SetCategories(context.Context, []model.Category) {}
