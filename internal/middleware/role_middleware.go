package middleware

import (
	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Role deja pasar solo a los roles indicados. Requiere LoadCaller antes en la cadena.
func Role(message string, allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := CallerFrom(c)
		for _, rol := range allowed {
			if caller.Rol == rol {
				return c.Next()
			}
		}
		return reject(c, apperror.Forbidden("Acceso denegado", message))
	}
}

func RequireAdmin() fiber.Handler {
	return Role("Solo los administradores pueden realizar esta acción", model.RolAdmin)
}

func RequireAdminOrDistributor() fiber.Handler {
	return Role("Solo administradores y distribuidores pueden acceder", model.RolAdmin, model.RolDistribuidor)
}

// RequireDistributor además exige que el usuario tenga un distribuidor asociado.
func RequireDistributor() fiber.Handler {
	guard := Role("Solo los distribuidores pueden realizar esta acción", model.RolDistribuidor)
	return func(c *fiber.Ctx) error {
		if caller := CallerFrom(c); caller.IsDistribuidor() && caller.DistribuidorID == "" {
			return reject(c, apperror.Validation("Distribuidor no asociado",
				"El usuario distribuidor no tiene un distribuidor asociado"))
		}
		return guard(c)
	}
}
