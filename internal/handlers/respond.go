// Package handlers implements the HTTP layer of ApexBoard. Handlers decode
// requests, delegate to services, and translate service errors onto HTTP
// status codes.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mirifridman/apexboard/internal/repository"
	"github.com/mirifridman/apexboard/internal/services"
)

// respondError maps a service or repository error onto the API's status
// code contract.
//
// Mapping:
//   - ValidationError         -> 400 with the validation message
//   - services.ErrForbidden   -> 403
//   - repository.ErrNotFound  -> 404
//   - ErrAlreadyProcessed     -> 409
//   - ErrExpired              -> 410
//   - anything else           -> 500 with a generic message
func respondError(c *fiber.Ctx, err error) error {
	if ve, ok := services.AsValidationError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Message})
	}

	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, repository.ErrAlreadyProcessed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already processed"})
	case errors.Is(err, repository.ErrExpired):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "expired"})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// pathID extracts and validates a UUID path parameter. Returning ok=false
// means the 400 response has already been written.
func pathID(c *fiber.Ctx, name string) (string, bool, error) {
	raw := c.Params(name)
	if _, err := uuid.Parse(raw); err != nil {
		return "", false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + name})
	}
	return raw, true, nil
}
