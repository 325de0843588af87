package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-live/internal/application/dto"
	"github.com/jhoicas/Inventario-live/internal/domain"
)

// writeError traduce un error de dominio a status HTTP + ErrorResponse.
// PartialFailure va antes que Transient: su causa puede ser transitoria pero requiere un operador.
func writeError(c *fiber.Ctx, err error) error {
	resp := dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, resp.Code, resp.Message = fiber.StatusBadRequest, "VALIDATION", err.Error()
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrNotFound):
		status, resp.Code, resp.Message = fiber.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrInsufficientStock):
		status, resp.Code, resp.Message = fiber.StatusConflict, "INSUFFICIENT_STOCK", err.Error()
		if available, ok := domain.AvailableStock(err); ok {
			resp.AvailableStock = &available
		}
	case errors.Is(err, domain.ErrAlreadyCancelled):
		status, resp.Code, resp.Message = fiber.StatusConflict, "ALREADY_CANCELLED", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status, resp.Code, resp.Message = fiber.StatusUnauthorized, "UNAUTHORIZED", "token inválido o expirado"
	case errors.Is(err, domain.ErrForbidden):
		status, resp.Code, resp.Message = fiber.StatusForbidden, "FORBIDDEN", "rol sin permiso para esta operación"
	case errors.Is(err, domain.ErrVersionConflict):
		status, resp.Code, resp.Message = fiber.StatusConflict, "VERSION_CONFLICT", err.Error()
	case errors.Is(err, domain.ErrDuplicate):
		status, resp.Code, resp.Message = fiber.StatusConflict, "DUPLICATE", err.Error()
	case errors.Is(err, domain.ErrPartialFailure):
		status, resp.Code, resp.Message = fiber.StatusInternalServerError, "PARTIAL_FAILURE", domain.ErrPartialFailure.Error()
	case errors.Is(err, domain.ErrTransient):
		status, resp.Code, resp.Message = fiber.StatusServiceUnavailable, "TRANSIENT", "almacenamiento no disponible, reintente"
	}
	return c.Status(status).JSON(resp)
}

// ErrorHandler manejador de errores de Fiber: errores no tratados por los handlers.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
		}
		log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
		return writeError(c, err)
	}
}

// RequestLogger registra cada petición con zerolog.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		status := c.Response().StatusCode()
		ev := log.Debug()
		if status >= fiber.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Str("user_id", GetUserID(c)).
			Msg("http")
		return err
	}
}
