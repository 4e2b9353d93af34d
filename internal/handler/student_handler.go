package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/nim"
	"github.com/noah-isme/akademik-api/internal/service"
	"github.com/noah-isme/akademik-api/internal/utils"
)

// StudentHandler exposes student registration and maintenance endpoints.
type StudentHandler struct {
	service     service.StudentService
	transcripts service.TranscriptService
	logger      zerolog.Logger
}

// NewStudentHandler constructs the handler. transcripts may be nil.
func NewStudentHandler(service service.StudentService, transcripts service.TranscriptService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service:     service,
		transcripts: transcripts,
		logger:      logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes. write guards the mutating routes.
func (h *StudentHandler) Register(router fiber.Router, write ...fiber.Handler) {
	router.Get("", h.list)
	router.Post("", guarded(write, h.create)...)
	router.Get("/:nim", h.get)
	router.Patch("/:nim", guarded(write, h.update)...)
	router.Delete("/:nim", guarded(write, h.delete)...)
	if h.transcripts != nil {
		router.Get("/:nim/transcript", h.transcript)
	}
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.StudentListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Program:  c.Query("program"),
		Status:   c.Query("status"),
	}

	response, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list students")
	}

	return utils.OK(c, response.Items, "students retrieved", response.Pagination)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create student")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	id, ok := h.nimParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid nim format, expected YYYY-KK-NNNN")
	}

	student, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch student")
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	id, ok := h.nimParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid nim format, expected YYYY-KK-NNNN")
	}

	var payload dto.StudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Update(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update student")
	}

	return utils.SendSuccess(c, "student updated", student)
}

func (h *StudentHandler) delete(c *fiber.Ctx) error {
	id, ok := h.nimParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid nim format, expected YYYY-KK-NNNN")
	}

	if err := h.service.Delete(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to delete student")
	}

	return utils.SendSuccess(c, "student deleted", fiber.Map{"nim": id})
}

func (h *StudentHandler) transcript(c *fiber.Ctx) error {
	id, ok := h.nimParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid nim format, expected YYYY-KK-NNNN")
	}

	transcript, err := h.transcripts.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to build transcript")
	}

	return utils.SendSuccess(c, "transcript retrieved", transcript)
}

func (h *StudentHandler) nimParam(c *fiber.Ctx) (string, bool) {
	id := strings.TrimSpace(c.Params("nim"))
	return id, nim.Valid(id)
}
