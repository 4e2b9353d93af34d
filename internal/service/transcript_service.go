package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/models"
	"github.com/noah-isme/akademik-api/internal/observability"
	"github.com/noah-isme/akademik-api/internal/repository"
)

const transcriptCachePrefix = "transcript:v1:"

// TranscriptInvalidator drops cached transcripts after writes.
type TranscriptInvalidator interface {
	Invalidate(ctx context.Context, nim string)
	InvalidateAll(ctx context.Context)
}

// TranscriptService builds per-student transcripts.
type TranscriptService interface {
	TranscriptInvalidator
	Get(ctx context.Context, nim string) (dto.TranscriptResponse, error)
}

type transcriptService struct {
	students    repository.StudentRepository
	enrollments repository.EnrollmentRepository
	cache       *redis.Client
	ttl         time.Duration
	logger      zerolog.Logger
}

// NewTranscriptService constructs the transcript service. A nil cache disables caching.
func NewTranscriptService(students repository.StudentRepository, enrollments repository.EnrollmentRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) TranscriptService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &transcriptService{
		students:    students,
		enrollments: enrollments,
		cache:       cache,
		ttl:         ttl,
		logger:      logger.With().Str("component", "transcript_service").Logger(),
	}
}

func (s *transcriptService) Get(ctx context.Context, nim string) (dto.TranscriptResponse, error) {
	ctx, span := otel.Tracer("github.com/noah-isme/akademik-api/internal/service/transcript").
		Start(ctx, "transcript.get", trace.WithAttributes(attribute.String("student.nim", nim)))
	defer span.End()

	if cached, ok := s.fetchCache(ctx, nim); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		observability.TranscriptCache().WithLabelValues("hit").Inc()
		return cached, nil
	}

	student, err := s.students.GetByNIM(ctx, nim)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TranscriptResponse{}, ErrStudentNotFound
		}
		return dto.TranscriptResponse{}, err
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, nim)
	if err != nil {
		span.RecordError(err)
		return dto.TranscriptResponse{}, err
	}

	result := buildTranscript(student, enrollments)
	span.SetAttributes(attribute.Bool("cache.hit", false), attribute.Int("transcript.entries", len(result.Entries)))
	s.writeCache(ctx, nim, result)
	observability.TranscriptCache().WithLabelValues("miss").Inc()

	return result, nil
}

func (s *transcriptService) Invalidate(ctx context.Context, nim string) {
	if s.cache == nil || nim == "" {
		return
	}
	if err := s.cache.Del(ctx, transcriptCachePrefix+nim).Err(); err != nil {
		s.logger.Warn().Err(err).Str("nim", nim).Msg("failed to invalidate transcript cache")
	}
}

// InvalidateAll drops every cached transcript; used when a course changes.
func (s *transcriptService) InvalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}

	iter := s.cache.Scan(ctx, 0, transcriptCachePrefix+"*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to scan transcript cache")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to flush transcript cache")
	}
}

func (s *transcriptService) fetchCache(ctx context.Context, nim string) (dto.TranscriptResponse, bool) {
	if s.cache == nil {
		return dto.TranscriptResponse{}, false
	}
	payload, err := s.cache.Get(ctx, transcriptCachePrefix+nim).Result()
	if err != nil {
		return dto.TranscriptResponse{}, false
	}

	var result dto.TranscriptResponse
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode transcript cache")
		return dto.TranscriptResponse{}, false
	}
	return result, true
}

func (s *transcriptService) writeCache(ctx context.Context, nim string, result dto.TranscriptResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode transcript cache")
		return
	}
	if err := s.cache.Set(ctx, transcriptCachePrefix+nim, payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store transcript cache")
	}
}

// buildTranscript aggregates enrollments. Cancelled enrollments are listed but
// count towards neither credits nor the credit weighted average grade.
func buildTranscript(student models.Student, enrollments []models.Enrollment) dto.TranscriptResponse {
	entries := make([]dto.TranscriptEntry, 0, len(enrollments))
	summary := dto.TranscriptSummary{Enrollments: len(enrollments)}

	var weighted float64
	var gradedCredits int
	for _, enrollment := range enrollments {
		entry := dto.TranscriptEntry{
			EnrollmentID: enrollment.ID,
			CourseID:     enrollment.CourseID,
			Semester:     enrollment.Semester,
			AcademicYear: enrollment.AcademicYear,
			Status:       enrollment.Status,
			Grade:        enrollment.Grade,
		}
		if enrollment.Course != nil {
			entry.CourseCode = enrollment.Course.Code
			entry.CourseName = enrollment.Course.Name
			entry.Credits = enrollment.Course.Credits
		}
		entries = append(entries, entry)

		if enrollment.Status == models.EnrollmentStatusCancelled {
			continue
		}
		summary.TotalCredits += entry.Credits
		if enrollment.Status == models.EnrollmentStatusCompleted {
			summary.CompletedCredits += entry.Credits
		}
		if enrollment.Grade != nil && entry.Credits > 0 {
			weighted += *enrollment.Grade * float64(entry.Credits)
			gradedCredits += entry.Credits
		}
	}

	if gradedCredits > 0 {
		average := math.Round(weighted/float64(gradedCredits)*100) / 100
		summary.AverageGrade = &average
	}

	return dto.TranscriptResponse{
		Student: dto.NewStudentResponse(student),
		Entries: entries,
		Summary: summary,
	}
}
