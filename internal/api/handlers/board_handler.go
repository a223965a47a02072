package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/blaircullen/socialdesk/internal/service"
)

type BoardHandler struct {
	bs service.BoardService
}

func NewBoardHandler(bs service.BoardService) *BoardHandler {
	return &BoardHandler{bs: bs}
}

// GetBoard returns the grouped, urgency-ranked operator view. It is a
// plain read; polling clients never mutate queue state through it.
func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return fail(c, err)
	}

	groups, err := h.bs.Board(c.Context(), filter)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(groups)
}
