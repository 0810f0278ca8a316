package handler

import (
	"alcance-reducido-backend/internal/middleware"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type DistribuidorHandler struct {
	usecase *usecase.DistribuidorUsecase
}

func NewDistribuidorHandler(u *usecase.DistribuidorUsecase) *DistribuidorHandler {
	return &DistribuidorHandler{usecase: u}
}

type nombreDistribuidor struct {
	ID                  string `json:"_id"`
	Representante       string `json:"representante"`
	NombreRepresentante string `json:"nombreRepresentante"`
}

func (h *DistribuidorHandler) GetNombres(c *fiber.Ctx) error {
	distribuidores, err := h.usecase.ListNombres(c.UserContext())
	if err != nil {
		return respondError(c, err, "Error al obtener nombres de distribuidores")
	}
	nombres := make([]nombreDistribuidor, 0, len(distribuidores))
	for _, d := range distribuidores {
		nombres = append(nombres, nombreDistribuidor{
			ID:                  d.ID,
			Representante:       d.Representante,
			NombreRepresentante: d.NombreRepresentante,
		})
	}
	return c.JSON(fiber.Map{"count": len(nombres), "distribuidores": nombres})
}

// GetInfo es el destino del QR.
func (h *DistribuidorHandler) GetInfo(c *fiber.Ctx) error {
	distribuidor, err := h.usecase.ResolveSlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err, "Error al obtener información del distribuidor")
	}
	return c.JSON(fiber.Map{"distribuidor": distribuidor})
}

func (h *DistribuidorHandler) GetByRepresentante(c *fiber.Ctx) error {
	vista, err := h.usecase.ResolveByRepresentante(c.UserContext(), c.Params("representante"))
	if err != nil {
		return respondError(c, err, "Error al obtener distribuidor")
	}
	return c.JSON(fiber.Map{"distribuidor": vista})
}

func (h *DistribuidorHandler) GetAll(c *fiber.Ctx) error {
	distribuidores, err := h.usecase.List(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err, "Error al obtener distribuidores")
	}
	return c.JSON(fiber.Map{"count": len(distribuidores), "distribuidores": distribuidores})
}

func (h *DistribuidorHandler) GetByID(c *fiber.Ctx) error {
	distribuidor, err := h.usecase.Get(c.UserContext(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Error al obtener distribuidor")
	}
	return c.JSON(fiber.Map{"distribuidor": distribuidor})
}

func (h *DistribuidorHandler) GetQR(c *fiber.Ctx) error {
	code, err := h.usecase.QR(c.UserContext(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Error al generar QR")
	}
	return c.JSON(fiber.Map{"message": "QR generado exitosamente", "qr": code})
}

func (h *DistribuidorHandler) Create(c *fiber.Ctx) error {
	var input usecase.DistribuidorInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, err, "")
	}
	distribuidor, code, err := h.usecase.Create(c.UserContext(), input)
	if err != nil {
		return respondError(c, err, "Error al crear distribuidor")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Distribuidor creado exitosamente",
		"distribuidor": distribuidor,
		"qr":           code,
	})
}

func (h *DistribuidorHandler) Update(c *fiber.Ctx) error {
	var input usecase.DistribuidorInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, err, "")
	}
	distribuidor, err := h.usecase.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return respondError(c, err, "Error al actualizar distribuidor")
	}
	return c.JSON(fiber.Map{
		"message":      "Distribuidor actualizado exitosamente",
		"distribuidor": distribuidor,
	})
}

func (h *DistribuidorHandler) Delete(c *fiber.Ctx) error {
	if err := h.usecase.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Error al eliminar distribuidor")
	}
	return c.JSON(fiber.Map{"message": "Distribuidor eliminado exitosamente"})
}
