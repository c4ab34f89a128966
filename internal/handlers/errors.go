package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func forbidden(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

// handleError maps service and identity errors onto HTTP statuses. Anything
// unrecognised is logged, reported and hidden behind a generic 500.
func handleError(c *fiber.Ctx, action string, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: verr.Error(),
		})
	case errors.Is(err, services.ErrValidation), errors.Is(err, docstore.ErrReservedValue):
		return badRequest(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	if code := identity.Code(err); code != "" {
		status := fiber.StatusBadRequest
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrInvalidToken):
			status = fiber.StatusUnauthorized
		case errors.Is(err, identity.ErrEmailInUse):
			status = fiber.StatusConflict
		case errors.Is(err, identity.ErrAccountNotFound):
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(), Code: code,
		})
	}

	slog.Error("request failed",
		"action", action,
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"error", err.Error(),
	)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}
