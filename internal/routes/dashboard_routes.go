package routes

import (
	"alcance-reducido-backend/internal/handler"
	"alcance-reducido-backend/internal/middleware"
	"alcance-reducido-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

func SetupDashboardRoutes(app *fiber.App, d *Deps) {
	repo := repository.NewDashboardRepository(d.DB)
	hdl := handler.NewDashboardHandler(repo)

	api := app.Group("/api/dashboard", append(d.authenticated(), middleware.RequireAdmin())...)
	api.Get("/", hdl.GetStats)
}
