package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/models"
	"github.com/noah-isme/akademik-api/internal/repository"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type studentFixture struct {
	db          *gorm.DB
	students    repository.StudentRepository
	sequences   repository.NIMSequenceRepository
	activityLog repository.ActivityLogRepository
	service     StudentService
}

func newStudentFixture(t *testing.T, strategy string) studentFixture {
	t.Helper()
	db := setupServiceDB(t)
	students := repository.NewStudentRepository(db)
	sequences := repository.NewNIMSequenceRepository(db)
	activityLog := repository.NewActivityLogRepository(db)

	allocator, err := NewIdentifierAllocator(strategy, students, sequences, testLogger())
	require.NoError(t, err)

	svc := NewStudentService(StudentServiceDeps{
		Repo:      students,
		Allocator: allocator,
		Validator: dto.NewValidator(),
		Activity:  NewActivityService(activityLog, testLogger()),
	}, testLogger())

	return studentFixture{db: db, students: students, sequences: sequences, activityLog: activityLog, service: svc}
}

func validStudentRequest(email string) dto.StudentCreateRequest {
	return dto.StudentCreateRequest{
		Name:      "Siti Rahmawati",
		Email:     email,
		Phone:     "081234567890",
		Address:   "Jl. Merdeka No. 1",
		BirthDate: "2004-02-29",
		Gender:    "female",
		Program:   "teknik_informatika",
		EntryYear: 2024,
	}
}

func ptrString(v string) *string {
	return &v
}

func ptrFloat(v float64) *float64 {
	return &v
}
