package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/events"
	"github.com/noah-isme/akademik-api/internal/models"
	"github.com/noah-isme/akademik-api/internal/repository"
)

type recordingInvalidator struct {
	keys []string
	all  int
}

func (r *recordingInvalidator) Invalidate(_ context.Context, nim string) { r.keys = append(r.keys, nim) }
func (r *recordingInvalidator) InvalidateAll(context.Context)            { r.all++ }

type recordingPublisher struct {
	types []string
}

func (r *recordingPublisher) Publish(_ context.Context, eventType, _ string, _ interface{}) error {
	r.types = append(r.types, eventType)
	return nil
}

type enrollmentFixture struct {
	students    studentFixture
	course      models.Course
	invalidator *recordingInvalidator
	publisher   *recordingPublisher
	service     EnrollmentService
}

func newEnrollmentFixture(t *testing.T) enrollmentFixture {
	t.Helper()
	fx := newStudentFixture(t, StrategyCounter)

	course := models.Course{Code: "IF101", Name: "Algoritma", Credits: 3, Semester: 1, Program: "teknik_informatika"}
	require.NoError(t, fx.db.Create(&course).Error)

	invalidator := &recordingInvalidator{}
	publisher := &recordingPublisher{}
	svc := NewEnrollmentService(
		repository.NewEnrollmentRepository(fx.db),
		fx.students,
		repository.NewCourseRepository(fx.db),
		dto.NewValidator(),
		NewActivityService(fx.activityLog, testLogger()),
		publisher,
		invalidator,
		testLogger(),
	)

	return enrollmentFixture{students: fx, course: course, invalidator: invalidator, publisher: publisher, service: svc}
}

func TestEnrollmentServiceCreate(t *testing.T) {
	fx := newEnrollmentFixture(t)
	ctx := context.Background()

	student, err := fx.students.service.Create(ctx, validStudentRequest("siti@example.com"), ActivityActor{})
	require.NoError(t, err)

	req := dto.EnrollmentCreateRequest{NIM: student.NIM, CourseID: fx.course.ID, Semester: 1, AcademicYear: "2024/2025"}
	created, err := fx.service.Create(ctx, req, ActivityActor{ID: "admin"})
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusRegistered, created.Status)
	require.Equal(t, student.NIM, created.NIM)
	require.Equal(t, []string{student.NIM}, fx.invalidator.keys)
	require.Equal(t, []string{events.EnrollmentCreated}, fx.publisher.types)

	_, err = fx.service.Create(ctx, req, ActivityActor{})
	require.ErrorIs(t, err, ErrEnrollmentExists)

	req.AcademicYear = "2025/2026"
	_, err = fx.service.Create(ctx, req, ActivityActor{})
	require.NoError(t, err)
}

func TestEnrollmentServiceCreateRejectsUnknownReferences(t *testing.T) {
	fx := newEnrollmentFixture(t)
	ctx := context.Background()

	_, err := fx.service.Create(ctx, dto.EnrollmentCreateRequest{NIM: "2024-10-0001", CourseID: fx.course.ID, Semester: 1, AcademicYear: "2024/2025"}, ActivityActor{})
	require.ErrorIs(t, err, ErrStudentNotFound)

	student, err := fx.students.service.Create(ctx, validStudentRequest("siti@example.com"), ActivityActor{})
	require.NoError(t, err)

	_, err = fx.service.Create(ctx, dto.EnrollmentCreateRequest{NIM: student.NIM, CourseID: 999, Semester: 1, AcademicYear: "2024/2025"}, ActivityActor{})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestEnrollmentServiceRejectsInvalidAcademicYear(t *testing.T) {
	fx := newEnrollmentFixture(t)
	ctx := context.Background()

	for _, year := range []string{"2024-2025", "2024/2026", "24/25"} {
		_, err := fx.service.Create(ctx, dto.EnrollmentCreateRequest{NIM: "2024-10-0001", CourseID: fx.course.ID, Semester: 1, AcademicYear: year}, ActivityActor{})
		require.ErrorIs(t, err, ErrInvalidAcademicYear, year)
	}

	_, err := fx.service.List(ctx, dto.EnrollmentListRequest{AcademicYear: "2024"})
	require.ErrorIs(t, err, ErrInvalidAcademicYear)
}

func TestEnrollmentServiceUpdateAndDelete(t *testing.T) {
	fx := newEnrollmentFixture(t)
	ctx := context.Background()

	student, err := fx.students.service.Create(ctx, validStudentRequest("siti@example.com"), ActivityActor{})
	require.NoError(t, err)
	created, err := fx.service.Create(ctx, dto.EnrollmentCreateRequest{NIM: student.NIM, CourseID: fx.course.ID, Semester: 1, AcademicYear: "2024/2025"}, ActivityActor{})
	require.NoError(t, err)

	updated, err := fx.service.Update(ctx, created.ID, dto.EnrollmentUpdateRequest{Grade: ptrFloat(88.5), Status: ptrString("completed")}, ActivityActor{})
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusCompleted, updated.Status)
	require.NotNil(t, updated.Grade)
	require.InDelta(t, 88.5, *updated.Grade, 0.001)

	list, err := fx.service.List(ctx, dto.EnrollmentListRequest{NIM: student.NIM, AcademicYear: "2024/2025"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	require.NoError(t, fx.service.Delete(ctx, created.ID, ActivityActor{}))
	require.ErrorIs(t, fx.service.Delete(ctx, created.ID, ActivityActor{}), ErrEnrollmentNotFound)

	_, err = fx.service.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrEnrollmentNotFound)
}
