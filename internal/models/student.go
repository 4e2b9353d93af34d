package models

import "time"

// Student status values.
const (
	StudentStatusActive     = "active"
	StudentStatusInactive   = "inactive"
	StudentStatusGraduated  = "graduated"
	StudentStatusDroppedOut = "dropped_out"
)

// Gender values.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Student is an enrolled learner keyed by the generated NIM.
type Student struct {
	NIM         string       `gorm:"primaryKey;size:20" json:"nim"`
	Name        string       `gorm:"size:100;not null;index" json:"name"`
	Email       string       `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone       string       `gorm:"size:15;not null" json:"phone"`
	Address     string       `gorm:"type:text" json:"address"`
	BirthDate   string       `gorm:"size:10;not null" json:"birth_date"`
	Gender      string       `gorm:"size:16;not null" json:"gender"`
	Program     string       `gorm:"size:50;not null;index" json:"program"`
	ProgramCode string       `gorm:"size:2;not null" json:"program_code"`
	EntryYear   int          `gorm:"not null;index;check:chk_students_entry_year,entry_year >= 2000 AND entry_year <= 2100" json:"entry_year"`
	Status      string       `gorm:"size:32;not null;default:active;index" json:"status"`
	Enrollments []Enrollment `gorm:"foreignKey:StudentNIM;references:NIM;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsActive reports whether the student is currently active.
func (s Student) IsActive() bool {
	return s.Status == StudentStatusActive
}
