package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/events"
	"github.com/noah-isme/akademik-api/internal/models"
	"github.com/noah-isme/akademik-api/internal/repository"
)

var (
	// ErrEnrollmentNotFound indicates the enrollment does not exist.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrEnrollmentExists indicates the student already takes the course in that academic year.
	ErrEnrollmentExists = errors.New("student already enrolled in this course for the academic year")
	// ErrInvalidAcademicYear indicates an academic year not shaped like 2023/2024.
	ErrInvalidAcademicYear = errors.New("invalid academic year")
)

// EnrollmentService manages course registrations.
type EnrollmentService interface {
	Create(ctx context.Context, payload dto.EnrollmentCreateRequest, actor ActivityActor) (dto.EnrollmentResponse, error)
	Get(ctx context.Context, id uint) (dto.EnrollmentResponse, error)
	List(ctx context.Context, req dto.EnrollmentListRequest) (dto.EnrollmentListResponse, error)
	Update(ctx context.Context, id uint, payload dto.EnrollmentUpdateRequest, actor ActivityActor) (dto.EnrollmentResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type enrollmentService struct {
	repo        repository.EnrollmentRepository
	students    repository.StudentRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	publisher   events.Publisher
	transcripts TranscriptInvalidator
	logger      zerolog.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(
	repo repository.EnrollmentRepository,
	students repository.StudentRepository,
	courses repository.CourseRepository,
	validator *validator.Validate,
	activity ActivityRecorder,
	publisher events.Publisher,
	transcripts TranscriptInvalidator,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		repo:        repo,
		students:    students,
		courses:     courses,
		validator:   validator,
		activity:    activity,
		publisher:   publisher,
		transcripts: transcripts,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
	}
}

func (s *enrollmentService) Create(ctx context.Context, payload dto.EnrollmentCreateRequest, actor ActivityActor) (dto.EnrollmentResponse, error) {
	payload.NIM = strings.TrimSpace(payload.NIM)
	payload.AcademicYear = strings.TrimSpace(payload.AcademicYear)
	if payload.AcademicYear != "" && !dto.ValidAcademicYear(payload.AcademicYear) {
		return dto.EnrollmentResponse{}, fmt.Errorf("%w: %q must look like 2023/2024", ErrInvalidAcademicYear, payload.AcademicYear)
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if _, err := s.students.GetByNIM(ctx, payload.NIM); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrStudentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}
	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	exists, err := s.repo.Exists(ctx, payload.NIM, payload.CourseID, payload.AcademicYear)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if exists {
		return dto.EnrollmentResponse{}, ErrEnrollmentExists
	}

	status := strings.ToLower(strings.TrimSpace(payload.Status))
	if status == "" {
		status = models.EnrollmentStatusRegistered
	}

	enrollment := models.Enrollment{
		StudentNIM:   payload.NIM,
		CourseID:     payload.CourseID,
		Grade:        payload.Grade,
		Semester:     payload.Semester,
		AcademicYear: payload.AcademicYear,
		Status:       status,
	}
	if err := s.repo.Create(ctx, &enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrollmentResponse{}, ErrEnrollmentExists
		}
		return dto.EnrollmentResponse{}, err
	}

	response := dto.NewEnrollmentResponse(enrollment)
	s.afterWrite(ctx, events.EnrollmentCreated, enrollment, actor, response)
	return response, nil
}

func (s *enrollmentService) Get(ctx context.Context, id uint) (dto.EnrollmentResponse, error) {
	enrollment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) List(ctx context.Context, req dto.EnrollmentListRequest) (dto.EnrollmentListResponse, error) {
	academicYear := strings.TrimSpace(req.AcademicYear)
	if academicYear != "" && !dto.ValidAcademicYear(academicYear) {
		return dto.EnrollmentListResponse{}, fmt.Errorf("%w: %q must look like 2023/2024", ErrInvalidAcademicYear, academicYear)
	}

	filter := repository.EnrollmentFilter{
		Page:         repository.Page{Page: req.Page, PageSize: req.PageSize},
		StudentNIM:   strings.TrimSpace(req.NIM),
		CourseID:     req.CourseID,
		AcademicYear: academicYear,
	}

	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.EnrollmentListResponse{}, err
	}

	responses := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.NewEnrollmentResponse(enrollment))
	}

	return dto.EnrollmentListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *enrollmentService) Update(ctx context.Context, id uint, payload dto.EnrollmentUpdateRequest, actor ActivityActor) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	enrollment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	if payload.Grade == nil && payload.Status == nil {
		return dto.NewEnrollmentResponse(enrollment), nil
	}
	if payload.Grade != nil {
		grade := *payload.Grade
		enrollment.Grade = &grade
	}
	if payload.Status != nil {
		enrollment.Status = strings.ToLower(strings.TrimSpace(*payload.Status))
	}

	if err := s.repo.Update(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	response := dto.NewEnrollmentResponse(enrollment)
	s.afterWrite(ctx, events.EnrollmentUpdated, enrollment, actor, response)
	return response, nil
}

func (s *enrollmentService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	enrollment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	s.afterWrite(ctx, events.EnrollmentDeleted, enrollment, actor, nil)
	return nil
}

func (s *enrollmentService) afterWrite(ctx context.Context, action string, enrollment models.Enrollment, actor ActivityActor, data interface{}) {
	if s.transcripts != nil {
		s.transcripts.Invalidate(ctx, enrollment.StudentNIM)
	}

	key := strconv.FormatUint(uint64(enrollment.ID), 10)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     action,
		EntityType: "enrollment",
		EntityKey:  key,
		Metadata: map[string]interface{}{
			"nim":           enrollment.StudentNIM,
			"course_id":     enrollment.CourseID,
			"academic_year": enrollment.AcademicYear,
		},
	})
	publishEvent(ctx, s.publisher, s.logger, action, key, data)
}
