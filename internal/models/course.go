package models

import "time"

// Course is a subject offered by a program.
type Course struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Code        string       `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name        string       `gorm:"size:100;not null;index" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Credits     int          `gorm:"not null;check:chk_courses_credits,credits >= 1 AND credits <= 6" json:"credits"`
	Semester    int          `gorm:"not null;index;check:chk_courses_semester,semester >= 1 AND semester <= 8" json:"semester"`
	Program     string       `gorm:"size:50;not null;index" json:"program"`
	Enrollments []Enrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
