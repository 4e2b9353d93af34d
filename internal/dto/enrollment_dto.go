package dto

import (
	"time"

	"github.com/noah-isme/akademik-api/internal/models"
)

// EnrollmentCreateRequest registers a student for a course in an academic year.
type EnrollmentCreateRequest struct {
	NIM          string   `json:"nim" validate:"required"`
	CourseID     uint     `json:"course_id" validate:"required"`
	Grade        *float64 `json:"grade" validate:"omitempty,gte=0,lte=100"`
	Semester     int      `json:"semester" validate:"required,min=1,max=8"`
	AcademicYear string   `json:"academic_year" validate:"required,academic_year"`
	Status       string   `json:"status" validate:"omitempty,oneof=registered in_progress completed cancelled"`
}

// EnrollmentUpdateRequest updates the grade and status of an enrollment.
type EnrollmentUpdateRequest struct {
	Grade  *float64 `json:"grade" validate:"omitempty,gte=0,lte=100"`
	Status *string  `json:"status" validate:"omitempty,oneof=registered in_progress completed cancelled"`
}

// EnrollmentListRequest defines enrollment listing filters.
type EnrollmentListRequest struct {
	Page         int
	PageSize     int
	NIM          string
	CourseID     uint
	AcademicYear string
}

// EnrollmentResponse serializes an enrollment.
type EnrollmentResponse struct {
	ID           uint      `json:"id"`
	NIM          string    `json:"nim"`
	CourseID     uint      `json:"course_id"`
	Grade        *float64  `json:"grade"`
	Semester     int       `json:"semester"`
	AcademicYear string    `json:"academic_year"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EnrollmentListResponse wraps a paginated enrollment listing.
type EnrollmentListResponse struct {
	Items      []EnrollmentResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewEnrollmentResponse converts an enrollment model into a DTO.
func NewEnrollmentResponse(enrollment models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:           enrollment.ID,
		NIM:          enrollment.StudentNIM,
		CourseID:     enrollment.CourseID,
		Grade:        enrollment.Grade,
		Semester:     enrollment.Semester,
		AcademicYear: enrollment.AcademicYear,
		Status:       enrollment.Status,
		CreatedAt:    enrollment.CreatedAt,
		UpdatedAt:    enrollment.UpdatedAt,
	}
}

// TranscriptEntry is one course line on a transcript.
type TranscriptEntry struct {
	EnrollmentID uint     `json:"enrollment_id"`
	CourseID     uint     `json:"course_id"`
	CourseCode   string   `json:"course_code"`
	CourseName   string   `json:"course_name"`
	Credits      int      `json:"credits"`
	Semester     int      `json:"semester"`
	AcademicYear string   `json:"academic_year"`
	Status       string   `json:"status"`
	Grade        *float64 `json:"grade"`
}

// TranscriptSummary aggregates credits and grades.
type TranscriptSummary struct {
	Enrollments      int      `json:"enrollments"`
	TotalCredits     int      `json:"total_credits"`
	CompletedCredits int      `json:"completed_credits"`
	AverageGrade     *float64 `json:"average_grade"`
}

// TranscriptResponse lists a student's enrollments, newest academic year first.
type TranscriptResponse struct {
	Student StudentResponse   `json:"student"`
	Entries []TranscriptEntry `json:"entries"`
	Summary TranscriptSummary `json:"summary"`
}
