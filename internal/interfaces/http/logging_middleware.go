package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dcastellanos/facturacion-api/pkg/logger"
)

// LoggingMiddleware registra cada petición con método, ruta, estado y latencia.
// Las rutas de emisión y anulación quedan así trazadas también fuera de la
// bitácora de auditoría.
func LoggingMiddleware(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("actor", GetUserID(c)).
			Msg("request")
		return err
	}
}
