package routes

import (
	"alcance-reducido-backend/internal/handler"
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, d *Deps) {
	repo := repository.NewUserRepository(d.DB)
	hdl := handler.NewAuthHandler(usecase.NewAuthUsecase(repo, d.Tokens))

	api := app.Group("/api/auth")
	api.Post("/register", d.limit(), hdl.Register)
	api.Post("/login", d.limit(), hdl.Login)
	api.Get("/profile", append(d.authenticated(), hdl.Profile)...)
}
