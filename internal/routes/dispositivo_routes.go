package routes

import (
	"alcance-reducido-backend/internal/handler"
	"alcance-reducido-backend/internal/middleware"
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

func SetupDispositivoRoutes(app *fiber.App, d *Deps) {
	uc := usecase.NewDispositivoUsecase(
		repository.NewDispositivoRepository(d.DB, d.Mode),
		repository.NewMarcaRepository(d.DB),
		repository.NewDistribuidorRepository(d.DB),
		d.Log,
	)
	hdl := handler.NewDispositivoHandler(uc, usecase.NewExportUsecase(uc))

	// Públicas: se registran antes que el grupo autenticado.
	app.Get("/api/dispositivos/public", d.limit(), hdl.GetPublic)
	app.Get("/api/dispositivos/public/:id", d.limit(), hdl.GetPublicByID)

	api := app.Group("/api/dispositivos", d.authenticated()...)
	api.Get("/", middleware.RequireAdminOrDistributor(), hdl.GetAll)
	api.Get("/export", middleware.RequireAdmin(), hdl.Export)
	api.Get("/:id", middleware.RequireAdminOrDistributor(), hdl.GetByID)
	api.Post("/", middleware.RequireAdmin(), hdl.Create)
	api.Put("/:id", middleware.RequireAdmin(), hdl.Update)
	api.Delete("/:id", middleware.RequireAdmin(), hdl.Delete)
}
