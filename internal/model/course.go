package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Category groups courses by programming language or track.
type Category struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	CatName   string    `json:"catName" gorm:"size:255;not null"`
	ProgLang  string    `json:"progLang" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Course is a purchasable catalog entry.
type Course struct {
	ID              int       `json:"id" gorm:"primaryKey"`
	Title           string    `json:"title" gorm:"size:255;not null"`
	Price           int64     `json:"price" gorm:"not null"`
	Rating          float64   `json:"rating" gorm:"not null"`
	TotalEnrollment int       `json:"totalEnrollment" gorm:"not null;default:0"`
	StartDate       time.Time `json:"startDate" gorm:"not null"`
	Desc            string    `json:"desc" gorm:"column:description;type:text;not null"`
	CourseImg       string    `json:"courseImg" gorm:"size:512"`
	DurationHours   int       `json:"durationHours" gorm:"not null"`
	Code            string    `json:"code" gorm:"size:64;not null"`
	CategoryID      int       `json:"CategoryId" gorm:"not null;index"`
	Category        *Category `json:"Category,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// BeforeCreate derives the course code from the title prefix and start date.
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	c.Code = CourseCode(c.Title, c.StartDate)
	return nil
}

// CourseCode returns the first five lowercased title characters joined with
// the start date as YYYYMMDD, e.g. "javas_20250501".
func CourseCode(title string, start time.Time) string {
	prefix := []rune(strings.ToLower(title))
	if len(prefix) > 5 {
		prefix = prefix[:5]
	}
	date := "00000000"
	if !start.IsZero() {
		date = start.UTC().Format("20060102")
	}
	return fmt.Sprintf("%s_%s", string(prefix), date)
}

// CourseListQuery holds the catalog listing parameters.
type CourseListQuery struct {
	Search     string `form:"search"`
	Sort       string `form:"sort"`
	CategoryID int    `form:"filter" binding:"omitempty,min=1"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Review is a learner's rating of a course.
type Review struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Rating    float64   `json:"rating" gorm:"not null"`
	Desc      string    `json:"desc" gorm:"column:description;type:text"`
	CourseID  int       `json:"CourseId" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateReviewRequest is the payload for reviewing a course.
type CreateReviewRequest struct {
	Rating float64 `json:"rating" binding:"required,min=0,max=5"`
	Desc   string  `json:"desc" binding:"omitempty,max=2000"`
}
