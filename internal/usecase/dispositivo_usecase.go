package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/metrics"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/repository"

	"gorm.io/datatypes"
)

// DispositivoInput es el cuerpo de creación y de actualización parcial.
type DispositivoInput struct {
	Modelo                    model.Optional[model.FlexString] `json:"modelo"`
	Tipo                      model.Optional[model.FlexString] `json:"tipo"`
	Foto                      model.Optional[model.FlexString] `json:"foto"`
	FechaPublicacion          model.Optional[model.FlexString] `json:"fechaPublicacion"`
	Tecnologia                model.Optional[model.StringList] `json:"tecnologia"`
	Frecuencias               model.Optional[model.StringList] `json:"frecuencias"`
	GananciaAntena            model.Optional[model.StringList] `json:"gananciaAntena"`
	EIRP                      model.Optional[model.StringList] `json:"EIRP"`
	Modulo                    model.Optional[model.StringList] `json:"modulo"`
	NombreTestReport          model.Optional[model.StringList] `json:"nombreTestReport"`
	TestReportFiles           model.Optional[model.FlexString] `json:"testReportFiles"`
	FechaCertificacionSubtel  model.Optional[model.FlexString] `json:"fechaCertificacionSubtel"`
	OficioCertificacionSubtel model.Optional[model.FlexString] `json:"oficioCertificacionSubtel"`
	ResolutionVersion         model.Optional[model.FlexString] `json:"resolutionVersion"`
	Marca                     model.Optional[model.FlexString] `json:"marca"`
	DistribuidorRefs
}

// DispositivoQuery son los filtros de listado que llegan por query string.
type DispositivoQuery struct {
	Marca        string
	Tipo         string
	Distribuidor string
}

var (
	errDispositivoNoEncontrado = apperror.NotFound("Dispositivo no encontrado", "")
	errMarcaNoEncontrada       = apperror.NotFound("Marca no encontrada", "La marca especificada no existe")
)

type DispositivoUsecase struct {
	dispositivos   repository.DispositivoRepository
	marcas         repository.MarcaRepository
	distribuidores repository.DistribuidorRepository
	ownership      OwnershipStrategy
	log            logger.Logger
}

func NewDispositivoUsecase(
	dispositivos repository.DispositivoRepository,
	marcas repository.MarcaRepository,
	distribuidores repository.DistribuidorRepository,
	log logger.Logger,
) *DispositivoUsecase {
	return &DispositivoUsecase{
		dispositivos:   dispositivos,
		marcas:         marcas,
		distribuidores: distribuidores,
		ownership:      NewOwnershipStrategy(dispositivos.Mode()),
		log:            log.Named("dispositivos"),
	}
}

func (u *DispositivoUsecase) Mode() model.OwnershipMode {
	return u.ownership.Mode()
}

// ListPublic lista el catálogo completo ordenado por nombre de marca.
func (u *DispositivoUsecase) ListPublic(ctx context.Context, q DispositivoQuery) ([]model.Dispositivo, error) {
	q.Distribuidor = ""
	return u.list(ctx, q)
}

// List aplica el alcance del usuario antes de consultar.
func (u *DispositivoUsecase) List(ctx context.Context, caller Caller, q DispositivoQuery) ([]model.Dispositivo, error) {
	q.Distribuidor = DistribuidorScope(caller, q.Distribuidor)
	if caller.IsDistribuidor() && q.Distribuidor == "" {
		return []model.Dispositivo{}, nil
	}
	return u.list(ctx, q)
}

func (u *DispositivoUsecase) list(ctx context.Context, q DispositivoQuery) ([]model.Dispositivo, error) {
	filter := repository.DispositivoFilter{Tipo: q.Tipo, DistribuidorID: q.Distribuidor}
	if marca := strings.TrimSpace(q.Marca); marca != "" {
		ids, err := u.marcas.FindIDsByIDOrName(ctx, marca)
		if err != nil {
			return nil, repoError(err, "Error al obtener dispositivos", nil)
		}
		filter.MarcaIDs = ids
		if filter.MarcaIDs == nil {
			filter.MarcaIDs = []string{}
		}
	}

	dispositivos, err := u.dispositivos.List(ctx, filter)
	if err != nil {
		return nil, repoError(err, "Error al obtener dispositivos", nil)
	}
	if err := u.populate(ctx, dispositivos); err != nil {
		return nil, err
	}
	SortByMarca(dispositivos)
	return dispositivos, nil
}

func (u *DispositivoUsecase) GetPublic(ctx context.Context, id string) (*model.Dispositivo, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return u.find(ctx, id)
}

// Get responde 403, no 404, si el dispositivo existe pero es de otro distribuidor.
func (u *DispositivoUsecase) Get(ctx context.Context, caller Caller, id string) (*model.Dispositivo, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	d, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckDispositivoAccess(caller, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (u *DispositivoUsecase) find(ctx context.Context, id string) (*model.Dispositivo, error) {
	d, err := u.dispositivos.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Error al obtener dispositivo", errDispositivoNoEncontrado)
	}
	one := []model.Dispositivo{*d}
	if err := u.populate(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (u *DispositivoUsecase) Create(ctx context.Context, in DispositivoInput) (*model.Dispositivo, error) {
	// 1. Campos requeridos
	modelo, marcaID := text(in.Modelo), text(in.Marca)
	if modelo == "" || marcaID == "" {
		return nil, apperror.Validation("Datos incompletos", "Se requieren modelo y marca del dispositivo")
	}
	distribuidorIDs, err := u.ownership.ForCreate(in.DistribuidorRefs)
	if err != nil {
		return nil, err
	}

	// 2. Fechas y versión
	fechaPublicacion := time.Now()
	if raw := text(in.FechaPublicacion); raw != "" {
		t, ok := parseFecha(raw)
		if !ok {
			return nil, errFechaPublicacion()
		}
		fechaPublicacion = t
	}
	var fechaCertificacion *time.Time
	if raw := text(in.FechaCertificacionSubtel); raw != "" {
		t, ok := parseFecha(raw)
		if !ok {
			return nil, errFechaCertificacion()
		}
		fechaCertificacion = &t
	}
	version := text(in.ResolutionVersion)
	if !validResolutionVersion(version) {
		version = model.ResolucionVersion2017
	}

	// 3. Modelo único
	if err := u.checkModelo(ctx, modelo, "", "Ya existe un dispositivo con este modelo"); err != nil {
		return nil, err
	}

	// 4. Marca y distribuidores existentes
	if err := u.checkMarca(ctx, marcaID); err != nil {
		return nil, err
	}
	if err := u.checkDistribuidores(ctx, distribuidorIDs); err != nil {
		return nil, err
	}

	// 5. Persistir el lado del dispositivo
	d := &model.Dispositivo{
		Modelo:                    modelo,
		Tipo:                      text(in.Tipo),
		Foto:                      text(in.Foto),
		FechaPublicacion:          fechaPublicacion,
		Tecnologia:                datatypes.JSONSlice[string](list(in.Tecnologia)),
		Frecuencias:               datatypes.JSONSlice[string](list(in.Frecuencias)),
		GananciaAntena:            datatypes.JSONSlice[string](list(in.GananciaAntena)),
		EIRP:                      datatypes.JSONSlice[string](list(in.EIRP)),
		Modulo:                    datatypes.JSONSlice[string](list(in.Modulo)),
		NombreTestReport:          datatypes.JSONSlice[string](list(in.NombreTestReport)),
		TestReportFiles:           text(in.TestReportFiles),
		FechaCertificacionSubtel:  fechaCertificacion,
		OficioCertificacionSubtel: text(in.OficioCertificacionSubtel),
		ResolutionVersion:         version,
		MarcaID:                   marcaID,
		DistribuidorIDs:           distribuidorIDs,
	}
	if err := u.dispositivos.Create(ctx, d); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Validation("Modelo duplicado", "Ya existe un dispositivo con este modelo")
		}
		return nil, repoError(err, "Error al crear dispositivo", nil)
	}

	// 6. Referencias inversas
	if err := u.syncBackRefs(ctx, d.ID, nil, distribuidorIDs); err != nil {
		return nil, apperror.Internal("Error al crear dispositivo", err)
	}

	return u.find(ctx, d.ID)
}

func (u *DispositivoUsecase) Update(ctx context.Context, id string, in DispositivoInput) (*model.Dispositivo, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	// 1. Estado actual, leído antes de cualquier escritura
	current, err := u.dispositivos.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Error al actualizar dispositivo", errDispositivoNoEncontrado)
	}
	before := current.ReferenciasEscritas()

	// 2. Validar y armar los cambios
	changes, err := u.buildChanges(ctx, id, in)
	if err != nil {
		return nil, err
	}

	// 3. Guardar el lado del dispositivo en una transacción
	if err := u.dispositivos.Update(ctx, id, changes); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Validation("Modelo duplicado", "Ya existe otro dispositivo con este modelo")
		}
		return nil, repoError(err, "Error al actualizar dispositivo", errDispositivoNoEncontrado)
	}

	// 4. Solo los distribuidores que entran o salen reciben escritura
	if changes.ReemplazarDistribuidores {
		if err := u.syncBackRefs(ctx, id, before, changes.Distribuidores); err != nil {
			return nil, apperror.Internal("Error al actualizar dispositivo", err)
		}
	}

	return u.find(ctx, id)
}

func (u *DispositivoUsecase) buildChanges(ctx context.Context, id string, in DispositivoInput) (repository.DispositivoChanges, error) {
	var changes repository.DispositivoChanges
	fields := map[string]any{}

	if in.Tipo.Set {
		fields["tipo"] = text(in.Tipo)
	}
	if in.Foto.Set {
		fields["foto"] = text(in.Foto)
	}
	for column, value := range map[string]model.Optional[model.StringList]{
		"tecnologia":         in.Tecnologia,
		"frecuencias":        in.Frecuencias,
		"ganancia_antena":    in.GananciaAntena,
		"eirp":               in.EIRP,
		"modulo":             in.Modulo,
		"nombre_test_report": in.NombreTestReport,
	} {
		if value.Set {
			fields[column] = datatypes.JSONSlice[string](list(value))
		}
	}
	if in.TestReportFiles.Set {
		fields["test_report_files"] = text(in.TestReportFiles)
	}
	if in.OficioCertificacionSubtel.Set {
		fields["oficio_certificacion_subtel"] = text(in.OficioCertificacionSubtel)
	}

	if in.FechaCertificacionSubtel.Set {
		raw := text(in.FechaCertificacionSubtel)
		if raw == "" {
			fields["fecha_certificacion_subtel"] = nil
		} else {
			t, ok := parseFecha(raw)
			if !ok {
				return changes, errFechaCertificacion()
			}
			fields["fecha_certificacion_subtel"] = t
		}
	}
	if in.FechaPublicacion.Set {
		t, ok := parseFecha(text(in.FechaPublicacion))
		if !ok {
			return changes, errFechaPublicacion()
		}
		fields["fecha_publicacion"] = t
	}
	if in.ResolutionVersion.Present() {
		version := in.ResolutionVersion.Value.Trimmed()
		if !validResolutionVersion(version) {
			return changes, apperror.Validation("Valor inválido", `resolutionVersion debe ser "2017" o "2025"`)
		}
		fields["resolution_version"] = version
	}

	// modelo y marca son obligatorios: vacío o null los deja como están.
	if modelo := text(in.Modelo); modelo != "" {
		if err := u.checkModelo(ctx, modelo, id, "Ya existe otro dispositivo con este modelo"); err != nil {
			return changes, err
		}
		fields["modelo"] = modelo
	}
	if marcaID := text(in.Marca); marcaID != "" {
		if err := u.checkMarca(ctx, marcaID); err != nil {
			return changes, err
		}
		fields["marca_id"] = marcaID
	}

	ids, replace, err := u.ownership.ForUpdate(in.DistribuidorRefs)
	if err != nil {
		return changes, err
	}
	if replace {
		if err := u.checkDistribuidores(ctx, ids); err != nil {
			return changes, err
		}
		changes.ReemplazarDistribuidores = true
		changes.Distribuidores = ids
	}

	changes.Fields = fields
	return changes, nil
}

func (u *DispositivoUsecase) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	d, err := u.dispositivos.FindByID(ctx, id)
	if err != nil {
		return repoError(err, "Error al eliminar dispositivo", errDispositivoNoEncontrado)
	}

	// 1. Sacar el dispositivo de cada distribuidor referenciado
	if err := u.syncBackRefs(ctx, id, d.ReferenciasEscritas(), nil); err != nil {
		return apperror.Internal("Error al eliminar dispositivo", err)
	}

	// 2. Borrar el dispositivo y sus filas de referencia
	if err := u.dispositivos.Delete(ctx, id); err != nil {
		return repoError(err, "Error al eliminar dispositivo", errDispositivoNoEncontrado)
	}
	return nil
}

// syncBackRefs escribe solo la diferencia simétrica entre before y after.
func (u *DispositivoUsecase) syncBackRefs(ctx context.Context, dispositivoID string, before, after []string) error {
	removed, added := diffIDs(before, after)
	for _, distribuidorID := range removed {
		if err := u.distribuidores.RemoveDispositivo(ctx, distribuidorID, dispositivoID); err != nil {
			u.log.Error().Err(err).Str("distribuidor", distribuidorID).Str("dispositivo", dispositivoID).Msg("no se pudo quitar la referencia inversa")
			return err
		}
		metrics.IncBackRefWrite(metrics.BackRefRemove)
		u.log.Debug().Str("distribuidor", distribuidorID).Str("dispositivo", dispositivoID).Msg("referencia inversa quitada")
	}
	for _, distribuidorID := range added {
		if err := u.distribuidores.AddDispositivo(ctx, distribuidorID, dispositivoID); err != nil {
			u.log.Error().Err(err).Str("distribuidor", distribuidorID).Str("dispositivo", dispositivoID).Msg("no se pudo agregar la referencia inversa")
			return err
		}
		metrics.IncBackRefWrite(metrics.BackRefAdd)
		u.log.Debug().Str("distribuidor", distribuidorID).Str("dispositivo", dispositivoID).Msg("referencia inversa agregada")
	}
	return nil
}

// diffIDs devuelve los ids que salen y los que entran, en el orden en que aparecen.
func diffIDs(before, after []string) (removed, added []string) {
	inBefore := make(map[string]bool, len(before))
	for _, id := range before {
		inBefore[id] = true
	}
	inAfter := make(map[string]bool, len(after))
	for _, id := range after {
		inAfter[id] = true
	}
	for _, id := range before {
		if !inAfter[id] {
			removed = append(removed, id)
		}
	}
	for _, id := range after {
		if !inBefore[id] {
			added = append(added, id)
		}
	}
	return removed, added
}

func (u *DispositivoUsecase) checkModelo(ctx context.Context, modelo, excludeID, message string) error {
	exists, err := u.dispositivos.ExistsModelo(ctx, modelo, excludeID)
	if err != nil {
		return repoError(err, "Error al validar modelo", nil)
	}
	if exists {
		return apperror.Validation("Modelo duplicado", message)
	}
	return nil
}

func (u *DispositivoUsecase) checkMarca(ctx context.Context, marcaID string) error {
	if !model.IsValidID(marcaID) {
		return errMarcaNoEncontrada
	}
	_, err := u.marcas.FindByID(ctx, marcaID)
	return repoError(err, "Error al validar marca", errMarcaNoEncontrada)
}

func (u *DispositivoUsecase) checkDistribuidores(ctx context.Context, ids []string) error {
	missing, err := u.distribuidores.MissingIDs(ctx, ids)
	if err != nil {
		return repoError(err, "Error al validar distribuidores", nil)
	}
	if len(missing) > 0 {
		return apperror.Validation("Distribuidor inválido", "Los distribuidores especificados no existen: "+strings.Join(missing, ", "))
	}
	return nil
}

// populate carga los distribuidores referenciados con una sola consulta.
func (u *DispositivoUsecase) populate(ctx context.Context, dispositivos []model.Dispositivo) error {
	var ids []string
	seen := map[string]bool{}
	for _, d := range dispositivos {
		for _, id := range d.DistribuidorIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	found, err := u.distribuidores.FindByIDs(ctx, ids)
	if err != nil {
		return repoError(err, "Error al obtener distribuidores", nil)
	}
	byID := make(map[string]model.Distribuidor, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}
	for i := range dispositivos {
		refs := make([]model.Distribuidor, 0, len(dispositivos[i].DistribuidorIDs))
		for _, id := range dispositivos[i].DistribuidorIDs {
			if d, ok := byID[id]; ok {
				refs = append(refs, d)
			}
		}
		dispositivos[i].Distribuidores = refs
	}
	return nil
}

// SortByMarca ordena por nombre de marca con intercalación española, conservando el orden previo en empates.
func SortByMarca(dispositivos []model.Dispositivo) {
	c := newCollator()
	sort.SliceStable(dispositivos, func(i, j int) bool {
		return c.CompareString(dispositivos[i].NombreMarca(), dispositivos[j].NombreMarca()) < 0
	})
}

func validResolutionVersion(v string) bool {
	return v == model.ResolucionVersion2017 || v == model.ResolucionVersion2025
}

func errFechaPublicacion() error {
	return apperror.Validation("Fecha inválida", "La fecha de publicación debe ser una fecha válida")
}

func errFechaCertificacion() error {
	return apperror.Validation("Fecha inválida", "La fecha de certificación SUBTEL debe ser una fecha válida")
}
