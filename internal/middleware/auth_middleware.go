package middleware

import (
	"strings"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

const (
	claimsKey = "claims"
	callerKey = "caller"
)

// TokenVerifier valida el bearer token y devuelve sus claims.
type TokenVerifier interface {
	Verify(raw string) (*usecase.Claims, error)
}

// Auth exige un JWT válido en el header Authorization.
func Auth(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Tomar el token del header "Bearer <token>"
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		scheme, raw, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			return reject(c, apperror.Unauthenticated("Token de acceso requerido",
				"Debes proporcionar un token JWT en el header Authorization"))
		}

		// 2. Verificar firma y expiración
		claims, err := tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			return reject(c, apperror.Unauthenticated("Token inválido o expirado", "El token proporcionado no es válido"))
		}

		// 3. Guardar los claims para el resto de la cadena
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

func ClaimsFrom(c *fiber.Ctx) (*usecase.Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*usecase.Claims)
	return claims, ok && claims != nil
}

func reject(c *fiber.Ctx, e *apperror.Error) error {
	return c.Status(e.Status()).JSON(fiber.Map{"error": e.Title, "message": e.Message})
}
