package handler

import (
	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func respondError(c *fiber.Ctx, err error, title string) error {
	e := apperror.From(err, title)
	if e.Kind == apperror.KindInternal {
		c.Locals(middleware.ErrorLocal, err)
	}
	return c.Status(e.Status()).JSON(fiber.Map{
		"error":   e.Title,
		"message": e.Message,
	})
}

// parseBody decodifica el JSON del cuerpo; un cuerpo vacío equivale a {}.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperror.Validation("Datos inválidos", "El cuerpo de la solicitud no es JSON válido")
	}
	return nil
}
