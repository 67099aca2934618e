package repository

import (
	"context"
	"strings"

	"github.com/stemsi/kodemy-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortableColumns maps the public sort keys onto course columns.
var sortableColumns = map[string]string{
	"id":              "id",
	"title":           "title",
	"price":           "price",
	"rating":          "rating",
	"totalEnrollment": "total_enrollment",
	"startDate":       "start_date",
	"durationHours":   "duration_hours",
	"createdAt":       "created_at",
}

// CourseFilter carries normalized listing parameters.
type CourseFilter struct {
	Search     string
	Sort       string // column key, "-" prefix for descending
	CategoryID int
	Limit      int
	Offset     int
}

type CourseRepository interface {
	List(ctx context.Context, f CourseFilter) ([]model.Course, int64, error)
	GetByID(ctx context.Context, id int) (*model.Course, error)
	Create(ctx context.Context, course *model.Course) error
	IncrementEnrollment(ctx context.Context, courseID, delta int) error
	BulkIncrementEnrollment(ctx context.Context, deltas map[int]int) error
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, f CourseFilter) ([]model.Course, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Course{})

	if f.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	if f.CategoryID > 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if col, desc, ok := ParseSort(f.Sort); ok {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc})
	} else {
		q = q.Order("id ASC")
	}

	var courses []model.Course
	err := q.Preload("Category").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// ParseSort resolves "col" / "-col" against the sortable column allow-list.
func ParseSort(sort string) (column string, desc bool, ok bool) {
	if sort == "" {
		return "", false, false
	}
	key := sort
	if strings.HasPrefix(sort, "-") {
		desc = true
		key = sort[1:]
	}
	column, ok = sortableColumns[key]
	return column, desc, ok
}

func (r *courseRepository) GetByID(ctx context.Context, id int) (*model.Course, error) {
	c := &model.Course{}
	if err := r.db.WithContext(ctx).Preload("Category").First(c, id).Error; err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	return translate(r.db.WithContext(ctx).Create(course).Error)
}

func (r *courseRepository) IncrementEnrollment(ctx context.Context, courseID, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("id = ?", courseID).
		UpdateColumn("total_enrollment", gorm.Expr("total_enrollment + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkIncrementEnrollment applies every delta in a single transaction.
// Unknown course ids are skipped.
func (r *courseRepository) BulkIncrementEnrollment(ctx context.Context, deltas map[int]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for courseID, delta := range deltas {
			err := tx.Model(&model.Course{}).
				Where("id = ?", courseID).
				UpdateColumn("total_enrollment", gorm.Expr("total_enrollment + ?", delta)).
				Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
