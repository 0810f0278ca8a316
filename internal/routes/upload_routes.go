package routes

import (
	"alcance-reducido-backend/internal/handler"
	"alcance-reducido-backend/internal/middleware"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

func SetupUploadRoutes(app *fiber.App, d *Deps) {
	hdl := handler.NewUploadHandler(usecase.NewUploadUsecase(d.Store, d.Upload, d.Log))

	api := app.Group("/api/upload", append(d.authenticated(), middleware.RequireAdmin())...)
	api.Post("/", hdl.Single)
	api.Post("/multiple", hdl.Multiple)
}
