package routes

import (
	"errors"
	"time"

	"alcance-reducido-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type AppOptions struct {
	Name      string
	BodyLimit int
	// StaticDir se sirve en /uploads cuando el almacenamiento es local.
	StaticDir string
}

// NewApp arma la aplicación Fiber con middleware global, rutas de servicio y la API.
func NewApp(opts AppOptions, d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      opts.Name,
		BodyLimit:    opts.BodyLimit,
		UnescapePath: true,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(d.Log))
	app.Use(cors.New())

	if opts.StaticDir != "" {
		app.Static("/uploads", opts.StaticDir)
	}

	app.Get("/", index)
	app.Get("/health", health(d))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	Setup(app, d)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	switch code {
	case fiber.StatusRequestEntityTooLarge:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Archivo demasiado grande",
			"message": "El archivo excede el tamaño máximo permitido.",
		})
	case fiber.StatusNotFound:
		return c.Status(code).JSON(fiber.Map{
			"error":   "Ruta no encontrada",
			"message": c.Method() + " " + c.Path(),
		})
	case fiber.StatusInternalServerError:
		c.Locals(middleware.ErrorLocal, err)
		return c.Status(code).JSON(fiber.Map{
			"error":   "Error interno del servidor",
			"message": err.Error(),
		})
	default:
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}

func index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "API Alcance Reducido",
		"version": "1.0.0",
		"endpoints": fiber.Map{
			"auth":               "/api/auth",
			"users":              "/api/users",
			"distribuidores":     "/api/distribuidores",
			"dispositivos":       "/api/dispositivos",
			"dispositivosPublic": "/api/dispositivos/public",
			"marcas":             "/api/marcas",
			"upload":             "/api/upload",
			"dashboard":          "/api/dashboard",
		},
	})
}

func health(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "error",
				"message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	}
}
