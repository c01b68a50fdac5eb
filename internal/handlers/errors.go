package handlers

import (
	"context"
	"errors"

	apperrors "bitcash/internal/errors"
	"bitcash/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindNotFound:           fiber.StatusNotFound,
	apperrors.KindInvalidCredential:  fiber.StatusUnauthorized,
	apperrors.KindInsufficientFunds:  fiber.StatusUnprocessableEntity,
	apperrors.KindDailyLimitExceeded: fiber.StatusUnprocessableEntity,
	apperrors.KindInvalidAmount:      fiber.StatusBadRequest,
	apperrors.KindUnsupported:        fiber.StatusBadRequest,
	apperrors.KindConflict:           fiber.StatusConflict,
}

// writeError renders domain errors with their fixed message. Anything else is
// logged and reported as an internal error.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		if status, ok := kindStatus[de.Kind]; ok {
			return response.Error(c, status, de.Message, de.Code)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return response.Error(c, fiber.StatusRequestTimeout, "request cancelled")
	}

	logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return response.ServerError(c)
}
