package ratelimit

import (
	"strconv"
	"time"

	"alcance-reducido-backend/config"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/throttled/throttled/v2"
)

const (
	LimitHeader      = "RateLimit-Limit"
	RemainingHeader  = "RateLimit-Remaining"
	ResetHeader      = "RateLimit-Reset"
	RetryAfterHeader = "Retry-After"
)

// New limita por IP las rutas públicas. Si el store falla, deja pasar la solicitud.
func New(cfg config.RateLimit, store throttled.GCRAStoreCtx, log logger.Logger) (fiber.Handler, error) {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error { return c.Next() }, nil
	}

	quota := throttled.RateQuota{
		MaxRate:  throttled.PerMin(cfg.PerMinute),
		MaxBurst: cfg.Burst,
	}
	limiter, err := throttled.NewGCRARateLimiterCtx(store, quota)
	if err != nil {
		return nil, err
	}

	return func(c *fiber.Ctx) error {
		limited, result, err := limiter.RateLimitCtx(c.UserContext(), "ip:"+c.IP(), 1)
		if err != nil {
			log.Warn().Err(err).Msg("rate limiter no disponible")
			return c.Next()
		}

		c.Set(LimitHeader, strconv.Itoa(result.Limit))
		c.Set(RemainingHeader, strconv.Itoa(result.Remaining))
		c.Set(ResetHeader, strconv.FormatInt(time.Now().Add(result.ResetAfter).Unix(), 10))

		if limited {
			metrics.IncRateLimited()
			c.Set(RetryAfterHeader, strconv.Itoa(int(result.RetryAfter.Seconds()+0.5)))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Demasiadas solicitudes",
				"message": "Intenta nuevamente en unos segundos",
			})
		}
		return c.Next()
	}, nil
}
