package model

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	sitioWebPattern = regexp.MustCompile(`^https?://.+`)
)

type Distribuidor struct {
	Base
	Representante       string `json:"representante" gorm:"size:191;not null;uniqueIndex"`
	RepresentanteKey    string `json:"-" gorm:"size:191;index"`
	NombreRepresentante string `json:"nombreRepresentante" gorm:"size:191"`
	Domicilio           string `json:"domicilio" gorm:"size:500"`
	Email               string `json:"email" gorm:"size:191"`
	SitioWeb            string `json:"sitioWeb" gorm:"size:500"`
	Logo                string `json:"logo" gorm:"size:500"`

	// Referencia inversa; solo la escribe el mantenedor de relaciones.
	Dispositivos   []DistribuidorDispositivo `json:"-" gorm:"foreignKey:DistribuidorID"`
	DispositivoIDs []string                  `json:"-" gorm:"-"`
}

func (Distribuidor) TableName() string {
	return "distribuidores"
}

func (d *Distribuidor) BeforeSave(tx *gorm.DB) error {
	d.RepresentanteKey = RepresentanteKey(d.Representante)
	return nil
}

func (d *Distribuidor) AfterFind(tx *gorm.DB) error {
	ids := make([]string, 0, len(d.Dispositivos))
	for _, ref := range d.Dispositivos {
		ids = append(ids, ref.DispositivoID)
	}
	d.DispositivoIDs = ids
	return nil
}

func (d Distribuidor) MarshalJSON() ([]byte, error) {
	type plain Distribuidor
	ids := d.DispositivoIDs
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(struct {
		plain
		Dispositivos []string `json:"dispositivos"`
	}{plain(d), ids})
}

// Validate revisa los formatos opcionales de email y sitio web.
func (d *Distribuidor) Validate() []string {
	var problemas []string
	if strings.TrimSpace(d.Representante) == "" {
		problemas = append(problemas, "El representante es requerido")
	}
	if d.Email != "" && !emailPattern.MatchString(d.Email) {
		problemas = append(problemas, "El email debe tener un formato válido")
	}
	if d.SitioWeb != "" && !sitioWebPattern.MatchString(d.SitioWeb) {
		problemas = append(problemas, "El sitio web debe ser una URL válida (http:// o https://)")
	}
	return problemas
}

// RepresentanteKey normaliza un nombre para búsquedas sin distinción de mayúsculas.
func RepresentanteKey(nombre string) string {
	s := norm.NFC.String(strings.ToLower(nombre))
	return strings.Join(strings.Fields(s), " ")
}

// DistribuidorDispositivo es una fila de la lista inversa dispositivos[] del distribuidor.
type DistribuidorDispositivo struct {
	DistribuidorID string    `gorm:"type:char(24);primaryKey"`
	DispositivoID  string    `gorm:"type:char(24);primaryKey;index"`
	CreatedAt      time.Time `json:"-"`
}

func (DistribuidorDispositivo) TableName() string {
	return "distribuidor_dispositivos"
}
