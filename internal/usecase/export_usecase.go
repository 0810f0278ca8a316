package usecase

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/model"

	"github.com/xuri/excelize/v2"
)

const ExportSheet = "Dispositivos"

// ExportHeader son las columnas de la planilla, en orden.
var ExportHeader = []string{
	"Modelo",
	"Marca",
	"Fabricante",
	"Tipo",
	"Tecnología",
	"Frecuencias",
	"Ganancia antena",
	"EIRP",
	"Módulo",
	"Test report",
	"Distribuidores",
	"Fecha publicación",
	"Fecha certificación SUBTEL",
	"Oficio certificación SUBTEL",
	"Resolución",
}

var exportWidths = []float64{28, 18, 18, 14, 20, 24, 16, 16, 18, 28, 32, 18, 22, 24, 10}

type ExportUsecase struct {
	dispositivos *DispositivoUsecase
}

func NewExportUsecase(dispositivos *DispositivoUsecase) *ExportUsecase {
	return &ExportUsecase{dispositivos: dispositivos}
}

// Export genera el catálogo visible para el usuario como un .xlsx.
func (u *ExportUsecase) Export(ctx context.Context, caller Caller, q DispositivoQuery) ([]byte, error) {
	dispositivos, err := u.dispositivos.List(ctx, caller, q)
	if err != nil {
		return nil, err
	}
	data, err := BuildCatalogWorkbook(dispositivos)
	if err != nil {
		return nil, apperror.Internal("Error al exportar dispositivos", err)
	}
	return data, nil
}

func BuildCatalogWorkbook(dispositivos []model.Dispositivo) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ExportSheet)
	if err != nil {
		return nil, fmt.Errorf("crear hoja: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("borrar hoja por defecto: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("estilo de encabezado: %w", err)
	}

	// 1. Encabezado
	if err := f.SetSheetRow(ExportSheet, "A1", &ExportHeader); err != nil {
		return nil, fmt.Errorf("escribir encabezado: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(ExportHeader), 1)
	if err := f.SetCellStyle(ExportSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("aplicar estilo: %w", err)
	}
	for i, width := range exportWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(ExportSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("ancho de columna: %w", err)
		}
	}

	// 2. Una fila por dispositivo
	for i, d := range dispositivos {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := exportRow(d)
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("escribir fila %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serializar planilla: %w", err)
	}
	return buf.Bytes(), nil
}

func exportRow(d model.Dispositivo) []any {
	fabricante := ""
	if d.Marca != nil {
		fabricante = d.Marca.Fabricante
	}
	representantes := make([]string, 0, len(d.Distribuidores))
	for _, dist := range d.Distribuidores {
		representantes = append(representantes, dist.Representante)
	}
	certificacion := ""
	if d.FechaCertificacionSubtel != nil {
		certificacion = d.FechaCertificacionSubtel.Format("2006-01-02")
	}
	return []any{
		d.Modelo,
		d.NombreMarca(),
		fabricante,
		d.Tipo,
		strings.Join(d.Tecnologia, ", "),
		strings.Join(d.Frecuencias, ", "),
		strings.Join(d.GananciaAntena, ", "),
		strings.Join(d.EIRP, ", "),
		strings.Join(d.Modulo, ", "),
		strings.Join(d.NombreTestReport, ", "),
		strings.Join(representantes, ", "),
		d.FechaPublicacion.Format("2006-01-02"),
		certificacion,
		d.OficioCertificacionSubtel,
		d.ResolutionVersion,
	}
}
