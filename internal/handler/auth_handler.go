package handler

import (
	"alcance-reducido-backend/internal/middleware"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	usecase *usecase.AuthUsecase
}

func NewAuthHandler(u *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{usecase: u}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input usecase.RegisterInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, err, "")
	}

	user, token, err := h.usecase.Register(c.UserContext(), input)
	if err != nil {
		return respondError(c, err, "Error al registrar usuario")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Usuario registrado exitosamente",
		"user":    user,
		"token":   token,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input usecase.LoginInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, err, "")
	}

	user, token, err := h.usecase.Login(c.UserContext(), input)
	if err != nil {
		return respondError(c, err, "Error al iniciar sesión")
	}

	return c.JSON(fiber.Map{
		"message": "Login exitoso",
		"user":    user,
		"token":   token,
	})
}

func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	user, err := h.usecase.Profile(c.UserContext(), middleware.CallerFrom(c).ID)
	if err != nil {
		return respondError(c, err, "Error al obtener perfil")
	}
	return c.JSON(fiber.Map{"user": user})
}
