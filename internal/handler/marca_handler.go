package handler

import (
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type MarcaHandler struct {
	usecase *usecase.MarcaUsecase
}

func NewMarcaHandler(u *usecase.MarcaUsecase) *MarcaHandler {
	return &MarcaHandler{usecase: u}
}

func (h *MarcaHandler) GetAll(c *fiber.Ctx) error {
	marcas, err := h.usecase.List(c.UserContext(), repository.MarcaFilter{
		Fabricante: c.Query("fabricante"),
		Nombre:     c.Query("marca"),
	})
	if err != nil {
		return respondError(c, err, "Error al obtener marcas")
	}
	return c.JSON(fiber.Map{"count": len(marcas), "marcas": marcas})
}

func (h *MarcaHandler) GetByID(c *fiber.Ctx) error {
	marca, err := h.usecase.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Error al obtener marca")
	}
	return c.JSON(fiber.Map{"marca": marca})
}

func (h *MarcaHandler) Create(c *fiber.Ctx) error {
	var input usecase.MarcaInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, err, "")
	}
	marca, err := h.usecase.Create(c.UserContext(), input)
	if err != nil {
		return respondError(c, err, "Error al crear marca")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Marca creada exitosamente",
		"marca":   marca,
	})
}

func (h *MarcaHandler) Update(c *fiber.Ctx) error {
	var input usecase.MarcaInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, err, "")
	}
	marca, err := h.usecase.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return respondError(c, err, "Error al actualizar marca")
	}
	return c.JSON(fiber.Map{
		"message": "Marca actualizada exitosamente",
		"marca":   marca,
	})
}

func (h *MarcaHandler) Delete(c *fiber.Ctx) error {
	if err := h.usecase.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Error al eliminar marca")
	}
	return c.JSON(fiber.Map{"message": "Marca eliminada exitosamente"})
}
