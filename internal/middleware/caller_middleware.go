package middleware

import (
	"context"
	"errors"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

// UserFinder es lo único que LoadCaller necesita del repositorio de usuarios.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// LoadCaller relee el usuario del token en cada solicitud, así los cambios
// de rol o afiliación aplican sin esperar a que el token expire.
func LoadCaller(users UserFinder, log logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFrom(c)
		if !ok {
			return reject(c, apperror.Unauthenticated("Token de acceso requerido", "Debes iniciar sesión"))
		}

		user, err := users.FindByID(c.UserContext(), claims.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return reject(c, apperror.Unauthenticated("Usuario no encontrado", "El usuario del token ya no existe"))
		}
		if err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("no se pudo cargar el usuario")
			return reject(c, apperror.Internal("Error al verificar permisos", err))
		}

		c.Locals(callerKey, usecase.CallerFromUser(user))
		return c.Next()
	}
}

// CallerFrom devuelve la identidad cargada por LoadCaller.
func CallerFrom(c *fiber.Ctx) usecase.Caller {
	caller, _ := c.Locals(callerKey).(usecase.Caller)
	return caller
}
