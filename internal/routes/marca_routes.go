package routes

import (
	"alcance-reducido-backend/internal/handler"
	"alcance-reducido-backend/internal/middleware"
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

func SetupMarcaRoutes(app *fiber.App, d *Deps) {
	uc := usecase.NewMarcaUsecase(repository.NewMarcaRepository(d.DB), repository.NewDispositivoRepository(d.DB, d.Mode))
	hdl := handler.NewMarcaHandler(uc)

	api := app.Group("/api/marcas", d.authenticated()...)
	api.Get("/", hdl.GetAll)
	api.Get("/:id", hdl.GetByID)
	api.Post("/", middleware.RequireAdmin(), hdl.Create)
	api.Put("/:id", middleware.RequireAdmin(), hdl.Update)
	api.Delete("/:id", middleware.RequireAdmin(), hdl.Delete)
}
