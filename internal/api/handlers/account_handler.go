package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/blaircullen/socialdesk/internal/repository"
	"github.com/blaircullen/socialdesk/internal/service"
)

type AccountHandler struct {
	ac      repository.SocialAccountRepository
	advisor service.AdvisorService
}

func NewAccountHandler(ac repository.SocialAccountRepository, advisor service.AdvisorService) *AccountHandler {
	return &AccountHandler{ac: ac, advisor: advisor}
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.ac.ListActive(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

// GetProfileInsight returns the posting-time picture for one account:
// freshness, top slots and the suggested send instant.
func (h *AccountHandler) GetProfileInsight(c *fiber.Ctx) error {
	insight, err := h.advisor.Insight(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(insight)
}
