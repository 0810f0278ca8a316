package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	ResolucionVersion2017 = "2017"
	ResolucionVersion2025 = "2025"
)

// OwnershipMode selecciona la generación de la relación Dispositivo↔Distribuidor.
type OwnershipMode string

const (
	OwnershipMulti  OwnershipMode = "multi"
	OwnershipSingle OwnershipMode = "single"
)

func ParseOwnershipMode(s string) (OwnershipMode, error) {
	switch OwnershipMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", OwnershipMulti:
		return OwnershipMulti, nil
	case OwnershipSingle:
		return OwnershipSingle, nil
	default:
		return "", fmt.Errorf("modo de relación desconocido: %q", s)
	}
}

type Dispositivo struct {
	Base
	Modelo                    string                      `json:"modelo" gorm:"size:191;not null;uniqueIndex"`
	Tipo                      string                      `json:"tipo" gorm:"size:100;index"`
	Foto                      string                      `json:"foto" gorm:"size:500"`
	FechaPublicacion          time.Time                   `json:"fechaPublicacion"`
	Tecnologia                datatypes.JSONSlice[string] `json:"tecnologia"`
	Frecuencias               datatypes.JSONSlice[string] `json:"frecuencias"`
	GananciaAntena            datatypes.JSONSlice[string] `json:"gananciaAntena"`
	EIRP                      datatypes.JSONSlice[string] `json:"EIRP" gorm:"column:eirp"`
	Modulo                    datatypes.JSONSlice[string] `json:"modulo"`
	NombreTestReport          datatypes.JSONSlice[string] `json:"nombreTestReport"`
	TestReportFiles           string                      `json:"testReportFiles" gorm:"size:500"`
	FechaCertificacionSubtel  *time.Time                  `json:"fechaCertificacionSubtel"`
	OficioCertificacionSubtel string                      `json:"oficioCertificacionSubtel" gorm:"size:191"`
	ResolutionVersion         string                      `json:"resolutionVersion" gorm:"size:4;not null;default:2017"`

	MarcaID string `json:"-" gorm:"type:char(24);not null;index"`
	Marca   *Marca `json:"-" gorm:"foreignKey:MarcaID"`

	// Generación "single": una sola referencia opcional.
	DistribuidorID *string `json:"-" gorm:"type:char(24);index"`
	// Generación "multi": filas ordenadas en dispositivo_distribuidores.
	Vinculos []DispositivoDistribuidor `json:"-" gorm:"foreignKey:DispositivoID"`

	// Referencias según la generación activa, llenadas por ResolveDistribuidores.
	DistribuidorIDs []string       `json:"-" gorm:"-"`
	Distribuidores  []Distribuidor `json:"-" gorm:"-"`
	// Ids que solo aparecen en la generación inactiva, p. ej. tras la migración.
	InactivoIDs []string `json:"-" gorm:"-"`
}

func (Dispositivo) TableName() string {
	return "dispositivos"
}

// ResolveDistribuidores llena DistribuidorIDs leyendo solo la generación del modo.
// Lo que quede en la otra generación va a InactivoIDs y no cuenta como referencia.
func (d *Dispositivo) ResolveDistribuidores(mode OwnershipMode) {
	vinculos := append([]DispositivoDistribuidor(nil), d.Vinculos...)
	sort.SliceStable(vinculos, func(i, j int) bool { return vinculos[i].Posicion < vinculos[j].Posicion })
	multi := make([]string, 0, len(vinculos))
	for _, v := range vinculos {
		multi = append(multi, v.DistribuidorID)
	}
	single := []string{}
	if d.DistribuidorID != nil && *d.DistribuidorID != "" {
		single = append(single, *d.DistribuidorID)
	}

	active, inactive := multi, single
	if mode == OwnershipSingle {
		active, inactive = single, multi
	}
	d.DistribuidorIDs = active
	d.InactivoIDs = nil
	for _, id := range inactive {
		if !containsID(active, id) {
			d.InactivoIDs = append(d.InactivoIDs, id)
		}
	}
}

// ReferenciasEscritas incluye las referencias activas y las que quedaron en la
// generación inactiva; son las que pueden tener referencia inversa.
func (d *Dispositivo) ReferenciasEscritas() []string {
	out := append([]string(nil), d.DistribuidorIDs...)
	return append(out, d.InactivoIDs...)
}

func containsID(ids []string, id string) bool {
	for _, ref := range ids {
		if ref == id {
			return true
		}
	}
	return false
}

// TieneDistribuidor indica si id figura entre las referencias del dispositivo.
func (d *Dispositivo) TieneDistribuidor(id string) bool {
	return containsID(d.DistribuidorIDs, id)
}

// NombreMarca devuelve el nombre de la marca cargada o "".
func (d *Dispositivo) NombreMarca() string {
	if d.Marca == nil {
		return ""
	}
	return d.Marca.Nombre
}

func (d Dispositivo) MarshalJSON() ([]byte, error) {
	type plain Dispositivo
	p := plain(d)
	p.Tecnologia = ListOrEmpty(p.Tecnologia)
	p.Frecuencias = ListOrEmpty(p.Frecuencias)
	p.GananciaAntena = ListOrEmpty(p.GananciaAntena)
	p.EIRP = ListOrEmpty(p.EIRP)
	p.Modulo = ListOrEmpty(p.Modulo)
	p.NombreTestReport = ListOrEmpty(p.NombreTestReport)

	var marca any = d.MarcaID
	if d.Marca != nil {
		marca = d.Marca
	}

	ids := d.DistribuidorIDs
	if ids == nil {
		ids = []string{}
	}
	var distribuidores any = ids
	var distribuidor any
	switch {
	case len(d.Distribuidores) > 0:
		distribuidores = d.Distribuidores
		distribuidor = d.Distribuidores[0]
	case len(ids) > 0:
		distribuidor = ids[0]
	}

	return json.Marshal(struct {
		plain
		Marca          any `json:"marca"`
		Distribuidores any `json:"distribuidores"`
		Distribuidor   any `json:"distribuidor"`
	}{p, marca, distribuidores, distribuidor})
}

func ListOrEmpty(l datatypes.JSONSlice[string]) datatypes.JSONSlice[string] {
	if l == nil {
		return datatypes.JSONSlice[string]{}
	}
	return l
}

// DispositivoDistribuidor guarda el lado del dispositivo en la generación "multi".
type DispositivoDistribuidor struct {
	DispositivoID  string `gorm:"type:char(24);primaryKey"`
	DistribuidorID string `gorm:"type:char(24);primaryKey;index"`
	Posicion       int    `gorm:"not null;default:0"`
}

func (DispositivoDistribuidor) TableName() string {
	return "dispositivo_distribuidores"
}
