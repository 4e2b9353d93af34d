package dto

import (
	"time"

	"github.com/noah-isme/akademik-api/internal/models"
)

// StudentCreateRequest is the payload for registering a student. The NIM is
// generated from Program and EntryYear.
type StudentCreateRequest struct {
	Name      string `json:"name" validate:"required,min=3,max=100,not_numeric"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Phone     string `json:"phone" validate:"required,min=10,max=15"`
	Address   string `json:"address" validate:"omitempty,max=255"`
	BirthDate string `json:"birth_date" validate:"required,birth_date"`
	Gender    string `json:"gender" validate:"required,oneof=male female"`
	Program   string `json:"program" validate:"required,min=3,max=50"`
	EntryYear int    `json:"entry_year"`
	Status    string `json:"status" validate:"omitempty,oneof=active inactive graduated dropped_out"`
}

// StudentUpdateRequest captures partial updates. Program and entry year are
// fixed at creation because the NIM is derived from them.
type StudentUpdateRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=3,max=100,not_numeric"`
	Email     *string `json:"email" validate:"omitempty,email,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,min=10,max=15"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	BirthDate *string `json:"birth_date" validate:"omitempty,birth_date"`
	Gender    *string `json:"gender" validate:"omitempty,oneof=male female"`
	Status    *string `json:"status" validate:"omitempty,oneof=active inactive graduated dropped_out"`
}

// StudentListRequest defines filters for listing students.
type StudentListRequest struct {
	Page     int
	PageSize int
	Search   string
	Program  string
	Status   string
}

// StudentResponse serializes a student.
type StudentResponse struct {
	NIM         string    `json:"nim"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	BirthDate   string    `json:"birth_date"`
	Gender      string    `json:"gender"`
	Program     string    `json:"program"`
	ProgramCode string    `json:"program_code"`
	EntryYear   int       `json:"entry_year"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StudentListResponse wraps a paginated student listing.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewStudentResponse converts a student model into a DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		NIM:         student.NIM,
		Name:        student.Name,
		Email:       student.Email,
		Phone:       student.Phone,
		Address:     student.Address,
		BirthDate:   student.BirthDate,
		Gender:      student.Gender,
		Program:     student.Program,
		ProgramCode: student.ProgramCode,
		EntryYear:   student.EntryYear,
		Status:      student.Status,
		CreatedAt:   student.CreatedAt,
		UpdatedAt:   student.UpdatedAt,
	}
}
