package handler

import (
	"alcance-reducido-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	repo repository.DashboardRepository
}

func NewDashboardHandler(repo repository.DashboardRepository) *DashboardHandler {
	return &DashboardHandler{repo: repo}
}

func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.repo.GetDashboardStats(c.UserContext())
	if err != nil {
		return respondError(c, err, "Error al obtener estadísticas")
	}

	return c.JSON(fiber.Map{
		"message": "Estadísticas obtenidas exitosamente",
		"data":    stats,
	})
}
