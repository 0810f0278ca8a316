package handler

import (
	"io"
	"mime/multipart"
	"strconv"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

// Campos aceptados para una carga simple, en orden de preferencia.
var singleFields = []string{"image", "logo", "foto", "testReport", "testReportFile"}

const multipleField = "images"

type UploadHandler struct {
	usecase *usecase.UploadUsecase
}

func NewUploadHandler(u *usecase.UploadUsecase) *UploadHandler {
	return &UploadHandler{usecase: u}
}

func (h *UploadHandler) Single(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, errSinArchivo(), "")
	}

	var file usecase.UploadFile
	found := false
	for _, field := range singleFields {
		if headers := form.File[field]; len(headers) > 0 {
			file, found = uploadFile(field, headers[0]), true
			break
		}
	}
	if !found {
		return respondError(c, errSinArchivo(), "")
	}

	uploaded, err := h.usecase.Single(c.UserContext(), file, formValue(form, "type"))
	if err != nil {
		return respondError(c, err, "Error al subir imagen")
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Imagen subida exitosamente",
		"url":          uploaded.URL,
		"key":          uploaded.Key,
		"size":         uploaded.Size,
		"mimetype":     uploaded.Mimetype,
		"originalName": uploaded.OriginalName,
	})
}

func (h *UploadHandler) Multiple(c *fiber.Ctx) error {
	var files []usecase.UploadFile
	tipo := ""
	if form, err := c.MultipartForm(); err == nil {
		for _, header := range form.File[multipleField] {
			files = append(files, uploadFile(multipleField, header))
		}
		tipo = formValue(form, "type")
	}

	uploaded, err := h.usecase.Multiple(c.UserContext(), files, tipo)
	if err != nil {
		return respondError(c, err, "Error al subir imágenes")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": strconv.Itoa(len(uploaded)) + " imagen(es) subida(s) exitosamente",
		"images":  uploaded,
	})
}

func uploadFile(field string, header *multipart.FileHeader) usecase.UploadFile {
	return usecase.UploadFile{
		Field:       field,
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func errSinArchivo() error {
	return apperror.Validation("No se proporcionó ningún archivo", `Debes enviar un archivo de imagen en el campo "image"`)
}
