package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/events"
	"github.com/noah-isme/akademik-api/internal/models"
	"github.com/noah-isme/akademik-api/internal/repository"
)

var (
	// ErrCourseNotFound indicates the course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrCourseCodeTaken indicates another course already uses the code.
	ErrCourseCodeTaken = errors.New("course code already exists")
)

// CourseService exposes course catalogue operations.
type CourseService interface {
	Create(ctx context.Context, payload dto.CourseCreateRequest, actor ActivityActor) (dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	List(ctx context.Context, req dto.CourseListRequest) (dto.CourseListResponse, error)
	Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest, actor ActivityActor) (dto.CourseResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type courseService struct {
	repo        repository.CourseRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	publisher   events.Publisher
	transcripts TranscriptInvalidator
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo repository.CourseRepository, validator *validator.Validate, activity ActivityRecorder, publisher events.Publisher, transcripts TranscriptInvalidator, logger zerolog.Logger) CourseService {
	return &courseService{
		repo:        repo,
		validator:   validator,
		activity:    activity,
		publisher:   publisher,
		transcripts: transcripts,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) Create(ctx context.Context, payload dto.CourseCreateRequest, actor ActivityActor) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	code := normalizeCourseCode(payload.Code)
	taken, err := s.repo.CodeTaken(ctx, code, 0)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if taken {
		return dto.CourseResponse{}, ErrCourseCodeTaken
	}

	course := models.Course{
		Code:        code,
		Name:        s.sanitizer.Sanitize(strings.TrimSpace(payload.Name)),
		Description: s.sanitizer.Sanitize(strings.TrimSpace(payload.Description)),
		Credits:     payload.Credits,
		Semester:    payload.Semester,
		Program:     strings.TrimSpace(payload.Program),
	}

	if err := s.repo.Create(ctx, &course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CourseResponse{}, ErrCourseCodeTaken
		}
		s.logger.Error().Err(err).Str("code", code).Msg("failed to create course")
		return dto.CourseResponse{}, err
	}

	response := dto.NewCourseResponse(course)
	key := strconv.FormatUint(uint64(course.ID), 10)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     events.CourseCreated,
		EntityType: "course",
		EntityKey:  key,
		Metadata:   map[string]interface{}{"code": course.Code},
	})
	publishEvent(ctx, s.publisher, s.logger, events.CourseCreated, key, response)

	return response, nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) List(ctx context.Context, req dto.CourseListRequest) (dto.CourseListResponse, error) {
	filter := repository.CourseFilter{
		Page:     repository.Page{Page: req.Page, PageSize: req.PageSize},
		Program:  strings.TrimSpace(req.Program),
		Semester: req.Semester,
	}

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	responses := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, dto.NewCourseResponse(course))
	}

	return dto.CourseListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *courseService) Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest, actor ActivityActor) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	changedFields := make([]string, 0)
	if payload.Code != nil {
		code := normalizeCourseCode(*payload.Code)
		if code != course.Code {
			taken, err := s.repo.CodeTaken(ctx, code, id)
			if err != nil {
				return dto.CourseResponse{}, err
			}
			if taken {
				return dto.CourseResponse{}, ErrCourseCodeTaken
			}
			course.Code = code
			changedFields = append(changedFields, "code")
		}
	}
	if payload.Name != nil {
		course.Name = s.sanitizer.Sanitize(strings.TrimSpace(*payload.Name))
		changedFields = append(changedFields, "name")
	}
	if payload.Description != nil {
		course.Description = s.sanitizer.Sanitize(strings.TrimSpace(*payload.Description))
		changedFields = append(changedFields, "description")
	}
	if payload.Credits != nil {
		course.Credits = *payload.Credits
		changedFields = append(changedFields, "credits")
	}
	if payload.Semester != nil {
		course.Semester = *payload.Semester
		changedFields = append(changedFields, "semester")
	}
	if payload.Program != nil {
		course.Program = strings.TrimSpace(*payload.Program)
		changedFields = append(changedFields, "program")
	}

	if len(changedFields) == 0 {
		return dto.NewCourseResponse(course), nil
	}

	if err := s.repo.Update(ctx, &course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CourseResponse{}, ErrCourseCodeTaken
		}
		return dto.CourseResponse{}, err
	}

	// Transcripts embed course code, name and credits.
	if s.transcripts != nil {
		s.transcripts.InvalidateAll(ctx)
	}

	response := dto.NewCourseResponse(course)
	key := strconv.FormatUint(uint64(id), 10)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     events.CourseUpdated,
		EntityType: "course",
		EntityKey:  key,
		Metadata:   map[string]interface{}{"fields": changedFields},
	})
	publishEvent(ctx, s.publisher, s.logger, events.CourseUpdated, key, response)

	return response, nil
}

func (s *courseService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	if s.transcripts != nil {
		s.transcripts.InvalidateAll(ctx)
	}

	key := strconv.FormatUint(uint64(id), 10)
	s.logger.Info().Uint("course_id", id).Msg("course deleted")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     events.CourseDeleted,
		EntityType: "course",
		EntityKey:  key,
	})
	publishEvent(ctx, s.publisher, s.logger, events.CourseDeleted, key, nil)

	return nil
}

func normalizeCourseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
