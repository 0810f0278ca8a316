package routes

import (
	"alcance-reducido-backend/internal/handler"
	"alcance-reducido-backend/internal/middleware"
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

func SetupDistribuidorRoutes(app *fiber.App, d *Deps) {
	uc := usecase.NewDistribuidorUsecase(
		repository.NewDistribuidorRepository(d.DB),
		repository.NewDispositivoRepository(d.DB, d.Mode),
		repository.NewUserRepository(d.DB),
		usecase.NewQRService(d.QR, d.BaseURL),
		d.Log,
	)
	hdl := handler.NewDistribuidorHandler(uc)

	// Públicas
	app.Get("/api/distribuidores/nombres", d.limit(), hdl.GetNombres)
	app.Get("/api/distribuidores/representante/:representante", d.limit(), hdl.GetByRepresentante)
	app.Get("/api/distribuidores/:slug/info", d.limit(), hdl.GetInfo)

	api := app.Group("/api/distribuidores", d.authenticated()...)
	api.Get("/", middleware.RequireAdminOrDistributor(), hdl.GetAll)
	api.Get("/:id", middleware.RequireAdminOrDistributor(), hdl.GetByID)
	api.Get("/:id/qr", middleware.RequireAdminOrDistributor(), hdl.GetQR)
	api.Post("/", middleware.RequireAdmin(), hdl.Create)
	api.Put("/:id", middleware.RequireAdmin(), hdl.Update)
	api.Delete("/:id", middleware.RequireAdmin(), hdl.Delete)
}
