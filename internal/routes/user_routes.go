package routes

import (
	"alcance-reducido-backend/internal/handler"
	"alcance-reducido-backend/internal/middleware"
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, d *Deps) {
	users := repository.NewUserRepository(d.DB)
	distribuidores := repository.NewDistribuidorRepository(d.DB)
	hdl := handler.NewUserHandler(usecase.NewUserUsecase(users, distribuidores))

	admin := app.Group("/api/users", append(d.authenticated(), middleware.RequireAdmin())...)
	admin.Get("/", hdl.GetAll)
	admin.Get("/:id", hdl.GetByID)
	admin.Post("/", hdl.Create)
	admin.Put("/:id", hdl.Update)
	admin.Delete("/:id", hdl.Delete)
}
