package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/akademik-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedStudent(t *testing.T, db *gorm.DB, nim, email string) models.Student {
	t.Helper()
	student := models.Student{
		NIM:         nim,
		Name:        "Student " + nim,
		Email:       email,
		Phone:       "081234567890",
		BirthDate:   "2003-04-05",
		Gender:      models.GenderFemale,
		Program:     "teknik_informatika",
		ProgramCode: nim[5:7],
		EntryYear:   2024,
		Status:      models.StudentStatusActive,
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func seedCourse(t *testing.T, db *gorm.DB, code string) models.Course {
	t.Helper()
	course := models.Course{Code: code, Name: "Course " + code, Credits: 3, Semester: 1, Program: "teknik_informatika"}
	require.NoError(t, db.Create(&course).Error)
	return course
}
