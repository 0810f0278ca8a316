package qr

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// Encoder convierte un texto en una imagen.
type Encoder interface {
	Encode(content string) ([]byte, error)
}

// PNGEncoder genera PNG cuadrados con corrección de errores media.
type PNGEncoder struct {
	Size  int
	Level qrcode.RecoveryLevel
}

func NewPNGEncoder() PNGEncoder {
	return PNGEncoder{Size: 300, Level: qrcode.Medium}
}

func (e PNGEncoder) Encode(content string) ([]byte, error) {
	return qrcode.Encode(content, e.Level, e.Size)
}

func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
