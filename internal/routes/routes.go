package routes

import (
	"alcance-reducido-backend/config"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/middleware"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/qr"
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/storage"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps reúne lo que necesitan las rutas; se arma una vez en main.
type Deps struct {
	DB          *gorm.DB
	Log         logger.Logger
	Mode        model.OwnershipMode
	Tokens      *usecase.TokenService
	BaseURL     usecase.BaseURLSource
	QR          qr.Encoder
	Store       storage.BlobStore
	Upload      config.Upload
	PublicLimit fiber.Handler
}

// authenticated exige token y recarga al usuario desde la base.
func (d *Deps) authenticated() []fiber.Handler {
	return []fiber.Handler{
		middleware.Auth(d.Tokens),
		middleware.LoadCaller(repository.NewUserRepository(d.DB), d.Log),
	}
}

func (d *Deps) limit() fiber.Handler {
	if d.PublicLimit == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return d.PublicLimit
}

// Setup registra todas las rutas de la API.
func Setup(app *fiber.App, d *Deps) {
	SetupAuthRoutes(app, d)
	SetupUserRoutes(app, d)
	SetupDispositivoRoutes(app, d)
	SetupDistribuidorRoutes(app, d)
	SetupMarcaRoutes(app, d)
	SetupUploadRoutes(app, d)
	SetupDashboardRoutes(app, d)
}
