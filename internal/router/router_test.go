package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/akademik-api/internal/config"
	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/events"
	"github.com/noah-isme/akademik-api/internal/handler"
	"github.com/noah-isme/akademik-api/internal/middleware"
	"github.com/noah-isme/akademik-api/internal/models"
	"github.com/noah-isme/akademik-api/internal/repository"
	"github.com/noah-isme/akademik-api/internal/router"
	"github.com/noah-isme/akademik-api/internal/service"
)

const testSecret = "router-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

type harness struct {
	app   *fiber.App
	cache *redis.Client
}

func newHarness(t *testing.T, name string, deps func(*router.Dependencies)) harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:router_"+name+"?mode=memory&cache=shared&_foreign_keys=on"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	logger := zerolog.Nop()
	validate := dto.NewValidator()
	publisher := events.NewBroker(cache, nil, "akademik:events", logger)

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	allocator, err := service.NewIdentifierAllocator(service.StrategyCounter, studentRepo, repository.NewNIMSequenceRepository(db), logger)
	require.NoError(t, err)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	transcripts := service.NewTranscriptService(studentRepo, enrollmentRepo, cache, time.Minute, logger)
	students := service.NewStudentService(service.StudentServiceDeps{
		Repo:        studentRepo,
		Allocator:   allocator,
		Validator:   validate,
		Activity:    activity,
		Publisher:   publisher,
		Transcripts: transcripts,
	}, logger)
	courses := service.NewCourseService(courseRepo, validate, activity, publisher, transcripts, logger)
	enrollments := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, validate, activity, publisher, transcripts, logger)

	cfg := config.Config{AppName: "Akademik API", AppEnv: "test"}
	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})

	dependencies := router.Dependencies{
		StudentHandler:    handler.NewStudentHandler(students, transcripts, logger),
		CourseHandler:     handler.NewCourseHandler(courses, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollments, logger),
		NIMHandler:        handler.NewNIMHandler(),
		ActivityHandler:   handler.NewActivityHandler(activity, logger),
		HealthProbes: map[string]handler.HealthProbe{
			"database": func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
		},
	}
	if deps != nil {
		deps(&dependencies)
	}
	router.Register(app, cfg, dependencies)

	return harness{app: app, cache: cache}
}

func (h harness) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded envelope
	if resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

func tokenFor(t *testing.T, subject, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func registration(email string) map[string]interface{} {
	return map[string]interface{}{
		"name":       "Dewi Lestari",
		"email":      email,
		"phone":      "081298765432",
		"birth_date": "2005-01-20",
		"gender":     "female",
		"program":    "teknik_informatika",
		"entry_year": 2024,
	}
}

func TestRegistrationToTranscriptFlow(t *testing.T) {
	h := newHarness(t, "flow", func(deps *router.Dependencies) {
		deps.WriteGuard = []fiber.Handler{middleware.JWTProtected(testSecret), middleware.RequireRole("staff")}
	})
	staff := tokenFor(t, "staff-7", "staff")

	status, body := h.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.True(t, body.Success)

	status, _ = h.do(t, http.MethodPost, "/api/v1/students", "", registration("dewi@example.com"))
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = h.do(t, http.MethodPost, "/api/v1/students", tokenFor(t, "2024-10-0099", "student"), registration("dewi@example.com"))
	require.Equal(t, fiber.StatusForbidden, status)

	status, body = h.do(t, http.MethodPost, "/api/v1/students", staff, registration("dewi@example.com"))
	require.Equal(t, fiber.StatusCreated, status)
	var student dto.StudentResponse
	require.NoError(t, json.Unmarshal(body.Data, &student))
	require.Equal(t, "2024-10-0001", student.NIM)

	status, body = h.do(t, http.MethodPost, "/api/v1/courses", staff, map[string]interface{}{
		"code":     "if101",
		"name":     "Algoritma dan Pemrograman",
		"credits":  3,
		"semester": 1,
		"program":  "teknik_informatika",
	})
	require.Equal(t, fiber.StatusCreated, status)
	var course dto.CourseResponse
	require.NoError(t, json.Unmarshal(body.Data, &course))
	require.Equal(t, "IF101", course.Code)

	status, _ = h.do(t, http.MethodGet, "/api/v1/students/2024-10-0001/transcript", "", nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = h.do(t, http.MethodPost, "/api/v1/enrollments", staff, map[string]interface{}{
		"nim":           student.NIM,
		"course_id":     course.ID,
		"grade":         80,
		"semester":      1,
		"academic_year": "2024/2025",
		"status":        "completed",
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, body = h.do(t, http.MethodGet, "/api/v1/students/2024-10-0001/transcript", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	var transcript dto.TranscriptResponse
	require.NoError(t, json.Unmarshal(body.Data, &transcript))
	require.Len(t, transcript.Entries, 1)
	require.Equal(t, 3, transcript.Summary.CompletedCredits)
	require.NotNil(t, transcript.Summary.AverageGrade)
	require.InDelta(t, 80.0, *transcript.Summary.AverageGrade, 0.001)

	status, body = h.do(t, http.MethodGet, "/api/v1/activity?entity_type=student", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	var entries []dto.ActivityResponse
	require.NoError(t, json.Unmarshal(body.Data, &entries))
	require.NotEmpty(t, entries)
	require.Equal(t, "staff-7", entries[0].ActorID)

	status, _ = h.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, fiber.StatusOK, status)
}

func TestRegistrationLimiterOnlyThrottlesPost(t *testing.T) {
	h := newHarness(t, "limiter", func(deps *router.Dependencies) {
		deps.RegistrationLimiter = middleware.RateLimit("students", 1, time.Minute)
	})

	status, _ := h.do(t, http.MethodPost, "/api/v1/students", "", registration("first@example.com"))
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = h.do(t, http.MethodPost, "/api/v1/students", "", registration("second@example.com"))
	require.Equal(t, fiber.StatusTooManyRequests, status)

	for i := 0; i < 3; i++ {
		status, _ = h.do(t, http.MethodGet, "/api/v1/students", "", nil)
		require.Equal(t, fiber.StatusOK, status)
	}
}

func TestApplicationHeaderAndRoot(t *testing.T) {
	h := newHarness(t, "root", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Akademik API", resp.Header.Get("X-Application"))
	require.NotEmpty(t, resp.Header.Get(middleware.HeaderCorrelationID))

	status, _ := h.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, fiber.StatusOK, status)
}
