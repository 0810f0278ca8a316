package usecase

import (
	"regexp"
	"strings"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/qr"
)

// BaseURLSource entrega la URL pública vigente; config.Secrets la implementa.
type BaseURLSource interface {
	BaseURL() string
}

type QRCode struct {
	QRCode                    string `json:"qrCode"`
	URL                       string `json:"url"`
	DistribuidorID            string `json:"distribuidorId"`
	DistribuidorRepresentante string `json:"distribuidorRepresentante"`
}

type QRService struct {
	encoder qr.Encoder
	base    BaseURLSource
}

func NewQRService(encoder qr.Encoder, base BaseURLSource) *QRService {
	return &QRService{encoder: encoder, base: base}
}

var espacios = regexp.MustCompile(`\s+`)

// Slug usa el id; sin id cae al representante en minúsculas con guiones.
func Slug(d *model.Distribuidor) string {
	if d.ID != "" {
		return d.ID
	}
	return espacios.ReplaceAllString(strings.ToLower(d.Representante), "-")
}

func (s *QRService) URL(d *model.Distribuidor) string {
	return strings.TrimSuffix(s.base.BaseURL(), "/") + "/api/distribuidores/" + Slug(d) + "/info"
}

func (s *QRService) Generate(d *model.Distribuidor) (*QRCode, error) {
	url := s.URL(d)
	png, err := s.encoder.Encode(url)
	if err != nil {
		return nil, apperror.Internal("Error al generar QR", err)
	}
	return &QRCode{
		QRCode:                    qr.DataURL(png),
		URL:                       url,
		DistribuidorID:            d.ID,
		DistribuidorRepresentante: d.Representante,
	}, nil
}
