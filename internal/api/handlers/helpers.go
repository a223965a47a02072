package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/blaircullen/socialdesk/internal/service"
)

func GetOperatorID(c *fiber.Ctx) string {
	operatorID, _ := c.Locals("operator_id").(string)
	return operatorID
}

// fail maps the queue's error taxonomy onto HTTP statuses. Invalid
// transitions carry the current status so the client can reconcile a
// stale view.
func fail(c *fiber.Ctx, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ve.Error(),
		})
	}

	var nf *service.NotFound
	if errors.As(err, &nf) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": nf.Error(),
		})
	}

	var it *service.InvalidTransition
	if errors.As(err, &it) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":          it.Error(),
			"current_status": it.Current,
		})
	}

	var pf *service.PublishFailure
	if errors.As(err, &pf) {
		// Recorded on the post already; reported here for the
		// synchronous send-now caller.
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": pf.Error(),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
