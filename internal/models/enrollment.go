package models

import "time"

// Enrollment status values.
const (
	EnrollmentStatusRegistered = "registered"
	EnrollmentStatusInProgress = "in_progress"
	EnrollmentStatusCompleted  = "completed"
	EnrollmentStatusCancelled  = "cancelled"
)

// Enrollment records a student taking a course in an academic year. A student
// can take a course at most once per academic year.
type Enrollment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentNIM   string    `gorm:"size:20;not null;uniqueIndex:uq_enrollment_per_year,priority:1;index:idx_enrollment_nim_year,priority:1" json:"nim"`
	CourseID     uint      `gorm:"not null;uniqueIndex:uq_enrollment_per_year,priority:2;index" json:"course_id"`
	Grade        *float64  `gorm:"check:chk_enrollments_grade,grade IS NULL OR (grade >= 0 AND grade <= 100)" json:"grade"`
	Semester     int       `gorm:"not null;check:chk_enrollments_semester,semester >= 1 AND semester <= 8" json:"semester"`
	AcademicYear string    `gorm:"size:9;not null;uniqueIndex:uq_enrollment_per_year,priority:3;index:idx_enrollment_nim_year,priority:2" json:"academic_year"`
	Status       string    `gorm:"size:32;not null;default:registered" json:"status"`
	Student      *Student  `gorm:"foreignKey:StudentNIM;references:NIM" json:"-"`
	Course       *Course   `gorm:"foreignKey:CourseID" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
