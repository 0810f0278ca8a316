package usecase

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"alcance-reducido-backend/config"
	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/metrics"
	"alcance-reducido-backend/internal/storage"

	"github.com/google/uuid"
)

type FileClass string

const (
	ClassImage   FileClass = "image"
	ClassArchive FileClass = "archive"
)

var (
	imageTypes = map[string]bool{
		"image/jpeg": true, "image/jpg": true, "image/png": true, "image/gif": true, "image/webp": true,
	}
	imageExts   = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
	archiveType = map[string]bool{
		"application/x-rar-compressed": true, "application/vnd.rar": true,
		"application/zip": true, "application/x-zip-compressed": true,
	}
	archiveExts = map[string]bool{".rar": true, ".zip": true}
)

// Classify decide la clase por tipo MIME o extensión; si ambas aplican gana imagen.
func Classify(contentType, filename string) (FileClass, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case imageTypes[ct] || imageExts[ext]:
		return ClassImage, true
	case archiveType[ct] || archiveExts[ext]:
		return ClassArchive, true
	default:
		return "", false
	}
}

// FolderFor mapea el campo del formulario a la carpeta de destino.
// Para el campo genérico "image" se respeta el valor de "type" si es conocido.
func FolderFor(field, tipo string) string {
	switch field {
	case "logo":
		return "logos"
	case "foto":
		return "fotos"
	case "testReport", "testReportFile":
		return "test-reports"
	}
	switch strings.ToLower(strings.TrimSpace(tipo)) {
	case "logo":
		return "logos"
	case "foto":
		return "fotos"
	}
	return "general"
}

// UploadFile es un archivo recibido, independiente del transporte.
type UploadFile struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type UploadedFile struct {
	URL          string `json:"url"`
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	Mimetype     string `json:"mimetype"`
	OriginalName string `json:"originalName"`
}

type UploadUsecase struct {
	store      storage.BlobStore
	maxImage   int64
	maxArchive int64
	maxFiles   int
	newName    func() string
	log        logger.Logger
}

func NewUploadUsecase(store storage.BlobStore, cfg config.Upload, log logger.Logger) *UploadUsecase {
	return &UploadUsecase{
		store:      store,
		maxImage:   cfg.MaxImageMB << 20,
		maxArchive: cfg.MaxArchiveMB << 20,
		maxFiles:   cfg.MaxFiles,
		newName:    func() string { return uuid.NewString() },
		log:        log.Named("upload"),
	}
}

func (u *UploadUsecase) MaxFiles() int {
	return u.maxFiles
}

// Single valida y sube un archivo.
func (u *UploadUsecase) Single(ctx context.Context, f UploadFile, tipo string) (*UploadedFile, error) {
	plan, err := u.validate(f, tipo, false)
	if err != nil {
		return nil, err
	}
	return u.put(ctx, plan)
}

// Multiple valida todos los archivos antes de la primera escritura.
func (u *UploadUsecase) Multiple(ctx context.Context, files []UploadFile, tipo string) ([]UploadedFile, error) {
	if len(files) == 0 {
		return nil, apperror.Validation("No se proporcionaron archivos", `Debes enviar al menos un archivo de imagen en el campo "images"`)
	}
	if u.maxFiles > 0 && len(files) > u.maxFiles {
		return nil, apperror.Validation("Demasiados archivos", fmt.Sprintf("Se permiten como máximo %d archivos por solicitud", u.maxFiles))
	}

	// 1. Validar todo
	plans := make([]uploadPlan, 0, len(files))
	for _, f := range files {
		plan, err := u.validate(f, tipo, true)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	// 2. Subir
	out := make([]UploadedFile, 0, len(plans))
	for _, plan := range plans {
		uploaded, err := u.put(ctx, plan)
		if err != nil {
			return nil, err
		}
		out = append(out, *uploaded)
	}
	return out, nil
}

type uploadPlan struct {
	file        UploadFile
	class       FileClass
	key         string
	contentType string
}

func (u *UploadUsecase) validate(f UploadFile, tipo string, multiple bool) (uploadPlan, error) {
	class, ok := Classify(f.ContentType, f.Filename)
	if !ok {
		metrics.IncUpload("", "rejected")
		return uploadPlan{}, apperror.Validation("Error al procesar archivo",
			"Tipo de archivo no permitido. Solo se permiten: imágenes (JPEG, PNG, GIF, WEBP) y archivos comprimidos (RAR, ZIP)")
	}

	limit, clase, etiqueta := u.maxImage, "Las imágenes", "imágenes"
	if class == ClassArchive {
		limit, clase, etiqueta = u.maxArchive, "Los archivos comprimidos (RAR/ZIP)", "archivos comprimidos"
	}
	if f.Size > limit {
		metrics.IncUpload(string(class), "rejected")
		mb := float64(f.Size) / (1 << 20)
		msg := fmt.Sprintf("%s tienen un límite máximo de %dMB. El archivo subido es de %.2fMB", clase, limit>>20, mb)
		if multiple {
			msg = fmt.Sprintf("El archivo %q excede el límite de %dMB para %s. Tamaño actual: %.2fMB", f.Filename, limit>>20, etiqueta, mb)
		}
		return uploadPlan{}, apperror.Validation("Archivo demasiado grande", msg)
	}

	ext := strings.ToLower(filepath.Ext(f.Filename))
	contentType := f.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			contentType = guessed
		}
	}
	return uploadPlan{
		file:        f,
		class:       class,
		key:         FolderFor(f.Field, tipo) + "/" + u.newName() + ext,
		contentType: contentType,
	}, nil
}

func (u *UploadUsecase) put(ctx context.Context, plan uploadPlan) (*UploadedFile, error) {
	body, err := plan.file.Open()
	if err != nil {
		metrics.IncUpload(string(plan.class), "error")
		return nil, apperror.Internal("Error al subir archivo", err)
	}
	defer body.Close()

	if err := u.store.Put(ctx, plan.key, body, plan.file.Size, plan.contentType); err != nil {
		metrics.IncUpload(string(plan.class), "error")
		u.log.Error().Err(err).Str("key", plan.key).Msg("no se pudo guardar el archivo")
		return nil, apperror.Internal("Error al subir archivo", err)
	}
	metrics.IncUpload(string(plan.class), "ok")
	u.log.Debug().Str("key", plan.key).Int64("size", plan.file.Size).Msg("archivo guardado")

	return &UploadedFile{
		URL:          u.store.URL(plan.key),
		Key:          plan.key,
		Size:         plan.file.Size,
		Mimetype:     plan.contentType,
		OriginalName: plan.file.Filename,
	}, nil
}
