package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/akademik-api/internal/dto"
	"github.com/noah-isme/akademik-api/internal/nim"
	"github.com/noah-isme/akademik-api/internal/utils"
)

// NIMHandler exposes the program table and identifier parsing.
type NIMHandler struct{}

// NewNIMHandler constructs the handler.
func NewNIMHandler() *NIMHandler {
	return &NIMHandler{}
}

// Register attaches /programs and /nim/:nim to the router.
func (h *NIMHandler) Register(router fiber.Router) {
	router.Get("/programs", h.programs)
	router.Get("/nim/:nim", h.parse)
}

func (h *NIMHandler) programs(c *fiber.Ctx) error {
	programs := nim.Programs()
	response := make([]dto.ProgramResponse, 0, len(programs))
	for _, program := range programs {
		response = append(response, dto.ProgramResponse{Name: program.String(), Code: program.Code()})
	}

	return utils.SendSuccess(c, "programs retrieved", response)
}

func (h *NIMHandler) parse(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Params("nim"))
	id, err := nim.Parse(raw)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid nim format, expected YYYY-KK-NNNN")
	}

	response := dto.IdentifierResponse{
		NIM:         id.String(),
		Year:        id.Year,
		ProgramCode: id.ProgramCode,
		Sequence:    id.Sequence,
	}
	if program, ok := id.Program(); ok {
		response.Program = program.String()
	}

	return utils.SendSuccess(c, "nim is valid", response)
}
