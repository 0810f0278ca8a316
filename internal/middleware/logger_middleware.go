package middleware

import (
	"time"

	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ErrorLocal guarda el error original de un 500 para que quede en el log.
const ErrorLocal = "request_error"

// RequestLogger registra cada solicitud y alimenta las métricas HTTP.
func RequestLogger(log logger.Logger) fiber.Handler {
	log = log.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Deja que el ErrorHandler fije el status antes de registrar.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		latency := time.Since(start)
		status := c.Response().StatusCode()

		route := ""
		if r := c.Route(); r != nil {
			route = r.Path
		}
		metrics.ObserveHTTP(c.Method(), route, status, latency)

		var event *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			event = log.Error()
		case status >= fiber.StatusBadRequest:
			event = log.Warn()
		default:
			event = log.Info()
		}
		requestID, _ := c.Locals("requestid").(string)
		if herr, ok := c.Locals(ErrorLocal).(error); ok {
			event = event.Err(herr)
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.IP()).
			Str("request_id", requestID).
			Msg("request")
		return nil
	}
}
