package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/handler"
	"github.com/noah-isme/akademik-api/internal/service"
)

type stubCourseService struct {
	listReq dto.CourseListRequest
	getID   uint
	err     error
}

func (s *stubCourseService) Create(context.Context, dto.CourseCreateRequest, service.ActivityActor) (dto.CourseResponse, error) {
	return dto.CourseResponse{ID: 1, Code: "IF101"}, s.err
}

func (s *stubCourseService) Get(_ context.Context, id uint) (dto.CourseResponse, error) {
	s.getID = id
	return dto.CourseResponse{ID: id, Code: "IF101"}, s.err
}

func (s *stubCourseService) List(_ context.Context, req dto.CourseListRequest) (dto.CourseListResponse, error) {
	s.listReq = req
	return dto.CourseListResponse{Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, 0)}, s.err
}

func (s *stubCourseService) Update(_ context.Context, id uint, _ dto.CourseUpdateRequest, _ service.ActivityActor) (dto.CourseResponse, error) {
	return dto.CourseResponse{ID: id}, s.err
}

func (s *stubCourseService) Delete(context.Context, uint, service.ActivityActor) error {
	return s.err
}

type stubEnrollmentService struct {
	listReq dto.EnrollmentListRequest
	err     error
}

func (s *stubEnrollmentService) Create(context.Context, dto.EnrollmentCreateRequest, service.ActivityActor) (dto.EnrollmentResponse, error) {
	return dto.EnrollmentResponse{ID: 1}, s.err
}

func (s *stubEnrollmentService) Get(_ context.Context, id uint) (dto.EnrollmentResponse, error) {
	return dto.EnrollmentResponse{ID: id}, s.err
}

func (s *stubEnrollmentService) List(_ context.Context, req dto.EnrollmentListRequest) (dto.EnrollmentListResponse, error) {
	s.listReq = req
	return dto.EnrollmentListResponse{Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, 0)}, s.err
}

func (s *stubEnrollmentService) Update(_ context.Context, id uint, _ dto.EnrollmentUpdateRequest, _ service.ActivityActor) (dto.EnrollmentResponse, error) {
	return dto.EnrollmentResponse{ID: id}, s.err
}

func (s *stubEnrollmentService) Delete(context.Context, uint, service.ActivityActor) error {
	return s.err
}

func TestCourseHandlerQueryParsing(t *testing.T) {
	svc := &stubCourseService{}
	app := fiber.New()
	handler.NewCourseHandler(svc, zerolog.Nop()).Register(app.Group("/courses"))

	resp := doJSON(t, app, http.MethodGet, "/courses?program=sains_data&semester=3&page=2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, dto.CourseListRequest{Page: 2, PageSize: 10, Program: "sains_data", Semester: 3}, svc.listReq)

	resp = doJSON(t, app, http.MethodGet, "/courses?semester=9", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/courses/0", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/courses/12", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(12), svc.getID)
}

func TestCourseHandlerConflict(t *testing.T) {
	app := fiber.New()
	handler.NewCourseHandler(&stubCourseService{err: service.ErrCourseCodeTaken}, zerolog.Nop()).Register(app.Group("/courses"))

	resp := doJSON(t, app, http.MethodPost, "/courses", map[string]interface{}{"code": "IF101"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestEnrollmentHandlerStatuses(t *testing.T) {
	svc := &stubEnrollmentService{}
	app := fiber.New()
	handler.NewEnrollmentHandler(svc, zerolog.Nop()).Register(app.Group("/enrollments"))

	resp := doJSON(t, app, http.MethodGet, "/enrollments?nim=2024-10-0001&course_id=4&academic_year=2024/2025", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "2024-10-0001", svc.listReq.NIM)
	require.Equal(t, uint(4), svc.listReq.CourseID)
	require.Equal(t, "2024/2025", svc.listReq.AcademicYear)

	resp = doJSON(t, app, http.MethodGet, "/enrollments?course_id=abc", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/enrollments", map[string]interface{}{"nim": "2024-10-0001"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	cases := map[error]int{
		service.ErrEnrollmentExists:    fiber.StatusConflict,
		service.ErrStudentNotFound:     fiber.StatusNotFound,
		service.ErrCourseNotFound:      fiber.StatusNotFound,
		service.ErrInvalidAcademicYear: fiber.StatusBadRequest,
	}
	for err, status := range cases {
		svc.err = err
		resp = doJSON(t, app, http.MethodPost, "/enrollments", map[string]interface{}{"nim": "2024-10-0001"})
		require.Equal(t, status, resp.StatusCode, err.Error())
	}

	svc.err = service.ErrEnrollmentNotFound
	resp = doJSON(t, app, http.MethodDelete, "/enrollments/3", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
