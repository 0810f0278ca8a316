package handler

import (
	"alcance-reducido-backend/internal/middleware"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	usecase *usecase.UserUsecase
}

func NewUserHandler(u *usecase.UserUsecase) *UserHandler {
	return &UserHandler{usecase: u}
}

func (h *UserHandler) GetAll(c *fiber.Ctx) error {
	users, err := h.usecase.List(c.UserContext())
	if err != nil {
		return respondError(c, err, "Error al obtener usuarios")
	}
	return c.JSON(fiber.Map{"count": len(users), "users": users})
}

func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	user, err := h.usecase.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Error al obtener usuario")
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var input usecase.UserInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, err, "")
	}
	user, err := h.usecase.Create(c.UserContext(), input)
	if err != nil {
		return respondError(c, err, "Error al crear usuario")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Usuario creado exitosamente",
		"user":    user,
	})
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	var input usecase.UserInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, err, "")
	}
	user, err := h.usecase.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return respondError(c, err, "Error al actualizar usuario")
	}
	return c.JSON(fiber.Map{
		"message": "Usuario actualizado exitosamente",
		"user":    user,
	})
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	if err := h.usecase.Delete(c.UserContext(), middleware.CallerFrom(c), c.Params("id")); err != nil {
		return respondError(c, err, "Error al eliminar usuario")
	}
	return c.JSON(fiber.Map{"message": "Usuario eliminado exitosamente"})
}
