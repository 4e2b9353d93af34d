package models

import "time"

// NIMSequence stores the last sequence handed out for an (entry year, program code) pair.
// Rows only move forward, so identifiers of deleted students are never issued again.
type NIMSequence struct {
	EntryYear    int       `gorm:"primaryKey;autoIncrement:false"`
	ProgramCode  string    `gorm:"primaryKey;size:2"`
	LastSequence int       `gorm:"not null"`
	UpdatedAt    time.Time
}

// TableName pins the table name.
func (NIMSequence) TableName() string {
	return "nim_sequences"
}
