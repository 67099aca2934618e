package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/kodemy-backend/internal/middleware"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/response"
	"github.com/stemsi/kodemy-backend/internal/service"
	"github.com/stemsi/kodemy-backend/internal/validator"
)

// CourseHandler serves the public catalog and course reviews.
type CourseHandler struct {
	courseService *service.CourseService
}

func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// ListCourses godoc
// GET /courses?search=&sort=&filter=&page=&limit=
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var q model.CourseListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	page, err := h.courseService.List(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, page.Courses, page.Pagination)
}

// GetCourse godoc
// GET /courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, course)
}

// ListCategories godoc
// GET /categories
func (h *CourseHandler) ListCategories(c *gin.Context) {
	cats, err := h.courseService.Categories(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, cats)
}

// ListReviews godoc
// GET /courses/:id/reviews
func (h *CourseHandler) ListReviews(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reviews, err := h.courseService.Reviews(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, reviews)
}

// CreateReview godoc
// POST /courses/:id/reviews
func (h *CourseHandler) CreateReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.CreateReviewRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	review, err := h.courseService.AddReview(c.Request.Context(), id, middleware.GetUserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, review)
}
