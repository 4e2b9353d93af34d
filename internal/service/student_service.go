package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/events"
	"github.com/noah-isme/akademik-api/internal/models"
	"github.com/noah-isme/akademik-api/internal/nim"
	"github.com/noah-isme/akademik-api/internal/observability"
	"github.com/noah-isme/akademik-api/internal/repository"
)

// DefaultNIMMaxAttempts bounds identifier allocation retries on duplicate keys.
const DefaultNIMMaxAttempts = 3

var (
	// ErrStudentNotFound indicates the student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrStudentEmailTaken indicates another student already uses the email.
	ErrStudentEmailTaken = errors.New("email already registered")
	// ErrIdentifierConflict indicates every allocated NIM collided with an existing row.
	ErrIdentifierConflict = errors.New("could not allocate a unique nim")
)

// StudentService orchestrates student registration and maintenance.
type StudentService interface {
	Create(ctx context.Context, payload dto.StudentCreateRequest, actor ActivityActor) (dto.StudentResponse, error)
	Get(ctx context.Context, nim string) (dto.StudentResponse, error)
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Update(ctx context.Context, nim string, payload dto.StudentUpdateRequest, actor ActivityActor) (dto.StudentResponse, error)
	Delete(ctx context.Context, nim string, actor ActivityActor) error
}

// StudentServiceDeps groups the collaborators of the student service. Activity,
// Publisher and Transcripts are optional.
type StudentServiceDeps struct {
	Repo        repository.StudentRepository
	Allocator   IdentifierAllocator
	Validator   *validator.Validate
	Activity    ActivityRecorder
	Publisher   events.Publisher
	Transcripts TranscriptInvalidator
	MaxAttempts int
}

type studentService struct {
	repo        repository.StudentRepository
	allocator   IdentifierAllocator
	validator   *validator.Validate
	activity    ActivityRecorder
	publisher   events.Publisher
	transcripts TranscriptInvalidator
	sanitizer   *bluemonday.Policy
	maxAttempts int
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(deps StudentServiceDeps, logger zerolog.Logger) StudentService {
	maxAttempts := deps.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultNIMMaxAttempts
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &studentService{
		repo:        deps.Repo,
		allocator:   deps.Allocator,
		validator:   deps.Validator,
		activity:    deps.Activity,
		publisher:   publisher,
		transcripts: deps.Transcripts,
		sanitizer:   bluemonday.StrictPolicy(),
		maxAttempts: maxAttempts,
		logger:      logger.With().Str("component", "student_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest, actor ActivityActor) (dto.StudentResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/akademik-api/internal/service/student")
	ctx, span := tracer.Start(ctx, "student.create")
	defer span.End()

	payload = normalizeStudentCreate(payload)
	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.StudentResponse{}, err
	}

	program, err := nim.ParseProgram(payload.Program)
	if err != nil {
		span.SetStatus(codes.Error, "invalid_program")
		return dto.StudentResponse{}, err
	}

	entryYear := payload.EntryYear
	if entryYear == 0 {
		entryYear = s.now().Year()
	}
	if err := nim.ValidateYear(entryYear); err != nil {
		span.SetStatus(codes.Error, "invalid_year")
		return dto.StudentResponse{}, err
	}
	span.SetAttributes(
		attribute.String("student.program", program.String()),
		attribute.Int("student.entry_year", entryYear),
		attribute.String("nim.strategy", s.allocator.Strategy()),
	)

	email := normalizeEmail(payload.Email)
	taken, err := s.repo.EmailTaken(ctx, email, "")
	if err != nil {
		span.RecordError(err)
		return dto.StudentResponse{}, err
	}
	if taken {
		span.SetStatus(codes.Error, "email_taken")
		return dto.StudentResponse{}, ErrStudentEmailTaken
	}

	status := strings.ToLower(strings.TrimSpace(payload.Status))
	if status == "" {
		status = models.StudentStatusActive
	}

	student := models.Student{
		Name:        s.sanitizer.Sanitize(strings.TrimSpace(payload.Name)),
		Email:       email,
		Phone:       strings.TrimSpace(payload.Phone),
		Address:     s.sanitizer.Sanitize(strings.TrimSpace(payload.Address)),
		BirthDate:   payload.BirthDate,
		Gender:      strings.ToLower(payload.Gender),
		Program:     program.String(),
		ProgramCode: program.Code(),
		EntryYear:   entryYear,
		Status:      status,
	}

	if err := s.insertWithIdentifier(ctx, program, &student); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert_failed")
		return dto.StudentResponse{}, err
	}
	span.SetAttributes(attribute.String("student.nim", student.NIM))

	s.logger.Info().Str("nim", student.NIM).Str("program", student.Program).Msg("student registered")

	response := dto.NewStudentResponse(student)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     events.StudentCreated,
		EntityType: "student",
		EntityKey:  student.NIM,
		Metadata:   map[string]interface{}{"program": student.Program, "entry_year": student.EntryYear},
	})
	publishEvent(ctx, s.publisher, s.logger, events.StudentCreated, student.NIM, response)

	return response, nil
}

// insertWithIdentifier allocates a NIM and inserts the student, allocating again
// when the insert loses a race for the identifier.
func (s *studentService) insertWithIdentifier(ctx context.Context, program nim.Program, student *models.Student) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		id, err := s.allocator.Allocate(ctx, program, student.EntryYear)
		if err != nil {
			return err
		}
		student.NIM = id.String()

		err = s.repo.Create(ctx, student)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}

		// The unique email index raises the same error as the primary key.
		taken, lookupErr := s.repo.EmailTaken(ctx, student.Email, "")
		if lookupErr != nil {
			return lookupErr
		}
		if taken {
			return ErrStudentEmailTaken
		}

		observability.NIMCollisions().WithLabelValues(program.String()).Inc()
		s.logger.Warn().
			Str("nim", student.NIM).
			Int("attempt", attempt).
			Msg("nim collision, allocating again")
	}

	return fmt.Errorf("%w after %d attempts", ErrIdentifierConflict, s.maxAttempts)
}

func (s *studentService) Get(ctx context.Context, nim string) (dto.StudentResponse, error) {
	student, err := s.repo.GetByNIM(ctx, strings.TrimSpace(nim))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	filter := repository.StudentFilter{
		Page:    repository.Page{Page: req.Page, PageSize: req.PageSize},
		Search:  strings.TrimSpace(req.Search),
		Program: strings.TrimSpace(req.Program),
		Status:  strings.ToLower(strings.TrimSpace(req.Status)),
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	responses := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.NewStudentResponse(student))
	}

	return dto.StudentListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *studentService) Update(ctx context.Context, nim string, payload dto.StudentUpdateRequest, actor ActivityActor) (dto.StudentResponse, error) {
	payload = normalizeStudentUpdate(payload)
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	nim = strings.TrimSpace(nim)
	updates := make(map[string]interface{})
	changedFields := make([]string, 0)

	if payload.Name != nil {
		updates["name"] = s.sanitizer.Sanitize(strings.TrimSpace(*payload.Name))
		changedFields = append(changedFields, "name")
	}
	if payload.Email != nil {
		email := normalizeEmail(*payload.Email)
		taken, err := s.repo.EmailTaken(ctx, email, nim)
		if err != nil {
			return dto.StudentResponse{}, err
		}
		if taken {
			return dto.StudentResponse{}, ErrStudentEmailTaken
		}
		updates["email"] = email
		changedFields = append(changedFields, "email")
	}
	if payload.Phone != nil {
		updates["phone"] = strings.TrimSpace(*payload.Phone)
		changedFields = append(changedFields, "phone")
	}
	if payload.Address != nil {
		updates["address"] = s.sanitizer.Sanitize(strings.TrimSpace(*payload.Address))
		changedFields = append(changedFields, "address")
	}
	if payload.BirthDate != nil {
		updates["birth_date"] = *payload.BirthDate
		changedFields = append(changedFields, "birth_date")
	}
	if payload.Gender != nil {
		updates["gender"] = strings.ToLower(*payload.Gender)
		changedFields = append(changedFields, "gender")
	}
	if payload.Status != nil {
		updates["status"] = strings.ToLower(strings.TrimSpace(*payload.Status))
		changedFields = append(changedFields, "status")
	}

	if len(updates) == 0 {
		return s.Get(ctx, nim)
	}

	student, err := s.repo.Update(ctx, nim, updates)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return dto.StudentResponse{}, ErrStudentNotFound
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return dto.StudentResponse{}, ErrStudentEmailTaken
		}
		return dto.StudentResponse{}, err
	}

	response := dto.NewStudentResponse(student)
	s.invalidateTranscript(ctx, nim)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     events.StudentUpdated,
		EntityType: "student",
		EntityKey:  nim,
		Metadata:   map[string]interface{}{"fields": changedFields},
	})
	publishEvent(ctx, s.publisher, s.logger, events.StudentUpdated, nim, response)

	return response, nil
}

func (s *studentService) Delete(ctx context.Context, nim string, actor ActivityActor) error {
	nim = strings.TrimSpace(nim)
	if err := s.repo.Delete(ctx, nim); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.logger.Info().Str("nim", nim).Msg("student deleted")
	s.invalidateTranscript(ctx, nim)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     events.StudentDeleted,
		EntityType: "student",
		EntityKey:  nim,
	})
	publishEvent(ctx, s.publisher, s.logger, events.StudentDeleted, nim, nil)

	return nil
}

func (s *studentService) invalidateTranscript(ctx context.Context, nim string) {
	if s.transcripts != nil {
		s.transcripts.Invalidate(ctx, nim)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeStudentCreate trims and lowercases fields before validation.
func normalizeStudentCreate(payload dto.StudentCreateRequest) dto.StudentCreateRequest {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Email = normalizeEmail(payload.Email)
	payload.Phone = strings.TrimSpace(payload.Phone)
	payload.Address = strings.TrimSpace(payload.Address)
	payload.BirthDate = strings.TrimSpace(payload.BirthDate)
	payload.Gender = strings.ToLower(strings.TrimSpace(payload.Gender))
	payload.Program = strings.TrimSpace(payload.Program)
	payload.Status = strings.ToLower(strings.TrimSpace(payload.Status))
	return payload
}

func normalizeStudentUpdate(payload dto.StudentUpdateRequest) dto.StudentUpdateRequest {
	trim := func(v *string, lower bool) *string {
		if v == nil {
			return nil
		}
		out := strings.TrimSpace(*v)
		if lower {
			out = strings.ToLower(out)
		}
		return &out
	}

	payload.Name = trim(payload.Name, false)
	payload.Email = trim(payload.Email, true)
	payload.Phone = trim(payload.Phone, false)
	payload.Address = trim(payload.Address, false)
	payload.BirthDate = trim(payload.BirthDate, false)
	payload.Gender = trim(payload.Gender, true)
	payload.Status = trim(payload.Status, true)
	return payload
}
