package handler

import (
	"time"

	"alcance-reducido-backend/internal/middleware"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DispositivoHandler struct {
	usecase *usecase.DispositivoUsecase
	export  *usecase.ExportUsecase
}

func NewDispositivoHandler(u *usecase.DispositivoUsecase, export *usecase.ExportUsecase) *DispositivoHandler {
	return &DispositivoHandler{usecase: u, export: export}
}

func query(c *fiber.Ctx) usecase.DispositivoQuery {
	return usecase.DispositivoQuery{
		Marca:        c.Query("marca"),
		Tipo:         c.Query("tipo"),
		Distribuidor: c.Query("distribuidor"),
	}
}

// GetPublic es el catálogo abierto; ignora el filtro de distribuidor.
func (h *DispositivoHandler) GetPublic(c *fiber.Ctx) error {
	q := query(c)
	q.Distribuidor = ""
	dispositivos, err := h.usecase.ListPublic(c.UserContext(), q)
	if err != nil {
		return respondError(c, err, "Error al obtener dispositivos")
	}
	return c.JSON(fiber.Map{"count": len(dispositivos), "dispositivos": dispositivos})
}

func (h *DispositivoHandler) GetPublicByID(c *fiber.Ctx) error {
	dispositivo, err := h.usecase.GetPublic(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Error al obtener dispositivo")
	}
	return c.JSON(fiber.Map{"dispositivo": dispositivo})
}

func (h *DispositivoHandler) GetAll(c *fiber.Ctx) error {
	dispositivos, err := h.usecase.List(c.UserContext(), middleware.CallerFrom(c), query(c))
	if err != nil {
		return respondError(c, err, "Error al obtener dispositivos")
	}
	return c.JSON(fiber.Map{"count": len(dispositivos), "dispositivos": dispositivos})
}

func (h *DispositivoHandler) GetByID(c *fiber.Ctx) error {
	dispositivo, err := h.usecase.Get(c.UserContext(), middleware.CallerFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Error al obtener dispositivo")
	}
	return c.JSON(fiber.Map{"dispositivo": dispositivo})
}

func (h *DispositivoHandler) Export(c *fiber.Ctx) error {
	data, err := h.export.Export(c.UserContext(), middleware.CallerFrom(c), query(c))
	if err != nil {
		return respondError(c, err, "Error al exportar dispositivos")
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Attachment("dispositivos-" + time.Now().Format("20060102") + ".xlsx")
	return c.Send(data)
}

func (h *DispositivoHandler) Create(c *fiber.Ctx) error {
	var input usecase.DispositivoInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, err, "")
	}
	dispositivo, err := h.usecase.Create(c.UserContext(), input)
	if err != nil {
		return respondError(c, err, "Error al crear dispositivo")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Dispositivo creado exitosamente",
		"dispositivo": dispositivo,
	})
}

func (h *DispositivoHandler) Update(c *fiber.Ctx) error {
	var input usecase.DispositivoInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, err, "")
	}
	dispositivo, err := h.usecase.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return respondError(c, err, "Error al actualizar dispositivo")
	}
	return c.JSON(fiber.Map{
		"message":     "Dispositivo actualizado exitosamente",
		"dispositivo": dispositivo,
	})
}

func (h *DispositivoHandler) Delete(c *fiber.Ctx) error {
	if err := h.usecase.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Error al eliminar dispositivo")
	}
	return c.JSON(fiber.Map{"message": "Dispositivo eliminado exitosamente"})
}
