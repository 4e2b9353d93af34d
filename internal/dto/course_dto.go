package dto

import (
	"time"

	"github.com/noah-isme/akademik-api/internal/models"
)

// CourseCreateRequest is the payload for creating a course.
type CourseCreateRequest struct {
	Code        string `json:"code" validate:"required,min=3,max=20,course_code"`
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Credits     int    `json:"credits" validate:"required,min=1,max=6"`
	Semester    int    `json:"semester" validate:"required,min=1,max=8"`
	Program     string `json:"program" validate:"required,min=3,max=50"`
}

// CourseUpdateRequest captures partial course updates.
type CourseUpdateRequest struct {
	Code        *string `json:"code" validate:"omitempty,min=3,max=20,course_code"`
	Name        *string `json:"name" validate:"omitempty,min=3,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Credits     *int    `json:"credits" validate:"omitempty,min=1,max=6"`
	Semester    *int    `json:"semester" validate:"omitempty,min=1,max=8"`
	Program     *string `json:"program" validate:"omitempty,min=3,max=50"`
}

// CourseListRequest defines course listing filters.
type CourseListRequest struct {
	Page     int
	PageSize int
	Program  string
	Semester int
}

// CourseResponse serializes a course.
type CourseResponse struct {
	ID          uint      `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Credits     int       `json:"credits"`
	Semester    int       `json:"semester"`
	Program     string    `json:"program"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CourseListResponse wraps a paginated course listing.
type CourseListResponse struct {
	Items      []CourseResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
}

// NewCourseResponse converts a course model into a DTO.
func NewCourseResponse(course models.Course) CourseResponse {
	return CourseResponse{
		ID:          course.ID,
		Code:        course.Code,
		Name:        course.Name,
		Description: course.Description,
		Credits:     course.Credits,
		Semester:    course.Semester,
		Program:     course.Program,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}
