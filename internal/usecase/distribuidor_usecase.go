package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/repository"
)

type DistribuidorInput struct {
	Representante       model.Optional[model.FlexString] `json:"representante"`
	NombreRepresentante model.Optional[model.FlexString] `json:"nombreRepresentante"`
	Domicilio           model.Optional[model.FlexString] `json:"domicilio"`
	Email               model.Optional[model.FlexString] `json:"email"`
	SitioWeb            model.Optional[model.FlexString] `json:"sitioWeb"`
	Logo                model.Optional[model.FlexString] `json:"logo"`
}

// DispositivoResumen es un dispositivo anidado dentro de su marca, sin marca ni distribuidores.
type DispositivoResumen struct {
	ID                        string     `json:"_id"`
	Modelo                    string     `json:"modelo"`
	Tipo                      string     `json:"tipo"`
	Foto                      string     `json:"foto"`
	FechaPublicacion          time.Time  `json:"fechaPublicacion"`
	Tecnologia                []string   `json:"tecnologia"`
	Frecuencias               []string   `json:"frecuencias"`
	GananciaAntena            []string   `json:"gananciaAntena"`
	EIRP                      []string   `json:"EIRP"`
	Modulo                    []string   `json:"modulo"`
	NombreTestReport          []string   `json:"nombreTestReport"`
	TestReportFiles           string     `json:"testReportFiles"`
	FechaCertificacionSubtel  *time.Time `json:"fechaCertificacionSubtel"`
	OficioCertificacionSubtel string     `json:"oficioCertificacionSubtel"`
	ResolutionVersion         string     `json:"resolutionVersion"`
	CreatedAt                 time.Time  `json:"createdAt"`
	UpdatedAt                 time.Time  `json:"updatedAt"`
}

type MarcaConDispositivos struct {
	model.Marca
	Dispositivos []DispositivoResumen `json:"dispositivos"`
}

// DistribuidorConMarcas es la vista pública agrupada por marca.
type DistribuidorConMarcas struct {
	ID                  string                 `json:"_id"`
	Representante       string                 `json:"representante"`
	NombreRepresentante string                 `json:"nombreRepresentante"`
	Domicilio           string                 `json:"domicilio"`
	Email               string                 `json:"email"`
	SitioWeb            string                 `json:"sitioWeb"`
	Logo                string                 `json:"logo"`
	Dispositivos        []string               `json:"dispositivos"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
	Marcas              []MarcaConDispositivos `json:"marcas"`
	TotalMarcas         int                    `json:"totalMarcas"`
	TotalDispositivos   int                    `json:"totalDispositivos"`
}

var errDistribuidorNoEncontrado = apperror.NotFound("Distribuidor no encontrado", "")

type DistribuidorUsecase struct {
	distribuidores repository.DistribuidorRepository
	dispositivos   repository.DispositivoRepository
	users          repository.UserRepository
	qr             *QRService
	log            logger.Logger
}

func NewDistribuidorUsecase(
	distribuidores repository.DistribuidorRepository,
	dispositivos repository.DispositivoRepository,
	users repository.UserRepository,
	qr *QRService,
	log logger.Logger,
) *DistribuidorUsecase {
	return &DistribuidorUsecase{
		distribuidores: distribuidores,
		dispositivos:   dispositivos,
		users:          users,
		qr:             qr,
		log:            log.Named("distribuidores"),
	}
}

func (u *DistribuidorUsecase) ListNombres(ctx context.Context) ([]model.Distribuidor, error) {
	distribuidores, err := u.distribuidores.ListNombres(ctx)
	return distribuidores, repoError(err, "Error al obtener nombres de distribuidores", nil)
}

// List devuelve todos para el admin y solo el propio para un distribuidor.
func (u *DistribuidorUsecase) List(ctx context.Context, caller Caller) ([]model.Distribuidor, error) {
	if caller.IsDistribuidor() {
		d, err := u.distribuidores.FindByID(ctx, caller.DistribuidorID)
		if err != nil {
			return nil, repoError(err, "Error al obtener distribuidores", errDistribuidorNoEncontrado)
		}
		return []model.Distribuidor{*d}, nil
	}
	distribuidores, err := u.distribuidores.List(ctx)
	return distribuidores, repoError(err, "Error al obtener distribuidores", nil)
}

func (u *DistribuidorUsecase) Get(ctx context.Context, caller Caller, id string) (*model.Distribuidor, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if caller.IsDistribuidor() && caller.DistribuidorID != id {
		return nil, apperror.Forbidden("Acceso denegado", "Solo puedes ver tu propio distribuidor")
	}
	return u.find(ctx, id)
}

func (u *DistribuidorUsecase) find(ctx context.Context, id string) (*model.Distribuidor, error) {
	d, err := u.distribuidores.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Error al obtener distribuidor", errDistribuidorNoEncontrado)
	}
	return d, nil
}

func (u *DistribuidorUsecase) Create(ctx context.Context, in DistribuidorInput) (*model.Distribuidor, *QRCode, error) {
	// 1. Representante requerido y único
	representante := text(in.Representante)
	if representante == "" {
		return nil, nil, apperror.Validation("Datos incompletos", "Se requiere al menos el representante del distribuidor")
	}
	if err := u.checkRepresentante(ctx, representante, "", "Ya existe un distribuidor con este representante"); err != nil {
		return nil, nil, err
	}

	// 2. Armar y validar formatos
	d := &model.Distribuidor{
		Representante:       representante,
		NombreRepresentante: text(in.NombreRepresentante),
		Domicilio:           text(in.Domicilio),
		Email:               strings.ToLower(text(in.Email)),
		SitioWeb:            text(in.SitioWeb),
		Logo:                text(in.Logo),
	}
	if err := validateDistribuidor(d); err != nil {
		return nil, nil, err
	}

	// 3. Guardar
	if err := u.distribuidores.Create(ctx, d); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, apperror.Validation("Representante duplicado", "Ya existe un distribuidor con este representante")
		}
		return nil, nil, repoError(err, "Error al crear distribuidor", nil)
	}

	// 4. QR del nuevo distribuidor
	code, err := u.qr.Generate(d)
	if err != nil {
		return nil, nil, err
	}
	return d, code, nil
}

func (u *DistribuidorUsecase) Update(ctx context.Context, id string, in DistribuidorInput) (*model.Distribuidor, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	d, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if representante := text(in.Representante); representante != "" {
		if err := u.checkRepresentante(ctx, representante, id, "Ya existe otro distribuidor con este representante"); err != nil {
			return nil, err
		}
		d.Representante = representante
	}
	if in.NombreRepresentante.Set {
		d.NombreRepresentante = text(in.NombreRepresentante)
	}
	if in.Domicilio.Set {
		d.Domicilio = text(in.Domicilio)
	}
	if in.Email.Set {
		d.Email = strings.ToLower(text(in.Email))
	}
	if in.SitioWeb.Set {
		d.SitioWeb = text(in.SitioWeb)
	}
	if in.Logo.Set {
		d.Logo = text(in.Logo)
	}
	if err := validateDistribuidor(d); err != nil {
		return nil, err
	}

	if err := u.distribuidores.Save(ctx, d); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Validation("Representante duplicado", "Ya existe otro distribuidor con este representante")
		}
		return nil, repoError(err, "Error al actualizar distribuidor", nil)
	}
	return d, nil
}

// Delete se niega mientras haya usuarios afiliados y luego suelta las referencias de los dispositivos.
func (u *DistribuidorUsecase) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if _, err := u.find(ctx, id); err != nil {
		return err
	}

	// 1. Usuarios afiliados
	afiliados, err := u.users.CountByDistribuidor(ctx, id)
	if err != nil {
		return repoError(err, "Error al eliminar distribuidor", nil)
	}
	if afiliados > 0 {
		return apperror.Validation("Distribuidor en uso", "Hay usuarios asociados a este distribuidor")
	}

	// 2. Quitar al distribuidor de los dispositivos
	afectados, err := u.dispositivos.DetachDistribuidor(ctx, id)
	if err != nil {
		return repoError(err, "Error al eliminar distribuidor", nil)
	}
	if len(afectados) > 0 {
		u.log.Info().Str("distribuidor", id).Int("dispositivos", len(afectados)).Msg("distribuidor retirado de los dispositivos")
	}

	// 3. Borrar el distribuidor junto con su lista inversa
	return repoError(u.distribuidores.Delete(ctx, id), "Error al eliminar distribuidor", errDistribuidorNoEncontrado)
}

// ResolveSlug busca primero por id y luego por nombre de representante.
func (u *DistribuidorUsecase) ResolveSlug(ctx context.Context, slug string) (*model.Distribuidor, error) {
	slug = strings.TrimSpace(slug)

	// 1. Id de registro
	if model.IsValidID(slug) {
		d, err := u.distribuidores.FindByID(ctx, slug)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, repoError(err, "Error al obtener información del distribuidor", nil)
		}
	}

	// 2. Nombre: coincidencia exacta antes que parcial
	key := model.RepresentanteKey(strings.ReplaceAll(slug, "-", " "))
	if key == "" {
		return nil, errDistribuidorNoEncontrado
	}
	d, err := u.distribuidores.FindByRepresentanteKey(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		d, err = u.distribuidores.FindByRepresentanteKeyContains(ctx, key)
	}
	if err != nil {
		return nil, repoError(err, "Error al obtener información del distribuidor", errDistribuidorNoEncontrado)
	}
	return d, nil
}

// ResolveByRepresentante arma la vista pública con los dispositivos agrupados por marca.
func (u *DistribuidorUsecase) ResolveByRepresentante(ctx context.Context, representante string) (*DistribuidorConMarcas, error) {
	// 1. Coincidencia exacta sin distinguir mayúsculas
	d, err := u.distribuidores.FindByRepresentanteKey(ctx, model.RepresentanteKey(representante))
	if err != nil {
		return nil, repoError(err, "Error al obtener distribuidor por representante",
			apperror.NotFound("Distribuidor no encontrado", "No se encontró un distribuidor con el representante: "+representante))
	}

	// 2. Dispositivos del distribuidor, ya ordenados por modelo
	dispositivos, err := u.dispositivos.List(ctx, repository.DispositivoFilter{DistribuidorID: d.ID})
	if err != nil {
		return nil, repoError(err, "Error al obtener distribuidor por representante", nil)
	}

	// 3. Agrupar por marca
	marcas := GroupByMarca(dispositivos)

	ids := d.DispositivoIDs
	if ids == nil {
		ids = []string{}
	}
	return &DistribuidorConMarcas{
		ID:                  d.ID,
		Representante:       d.Representante,
		NombreRepresentante: d.NombreRepresentante,
		Domicilio:           d.Domicilio,
		Email:               d.Email,
		SitioWeb:            d.SitioWeb,
		Logo:                d.Logo,
		Dispositivos:        ids,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
		Marcas:              marcas,
		TotalMarcas:         len(marcas),
		TotalDispositivos:   len(dispositivos),
	}, nil
}

// GroupByMarca agrupa conservando el orden de entrada y ordena las marcas por nombre e id.
func GroupByMarca(dispositivos []model.Dispositivo) []MarcaConDispositivos {
	index := map[string]int{}
	marcas := []MarcaConDispositivos{}
	for _, d := range dispositivos {
		i, ok := index[d.MarcaID]
		if !ok {
			grupo := MarcaConDispositivos{Dispositivos: []DispositivoResumen{}}
			if d.Marca != nil {
				grupo.Marca = *d.Marca
			} else {
				grupo.Marca.ID = d.MarcaID
			}
			marcas = append(marcas, grupo)
			i = len(marcas) - 1
			index[d.MarcaID] = i
		}
		marcas[i].Dispositivos = append(marcas[i].Dispositivos, resumen(d))
	}

	c := newCollator()
	sort.SliceStable(marcas, func(i, j int) bool {
		if cmp := c.CompareString(marcas[i].Nombre, marcas[j].Nombre); cmp != 0 {
			return cmp < 0
		}
		return marcas[i].ID < marcas[j].ID
	})
	for i := range marcas {
		grupo := marcas[i].Dispositivos
		sort.SliceStable(grupo, func(a, b int) bool { return grupo[a].Modelo < grupo[b].Modelo })
	}
	return marcas
}

func resumen(d model.Dispositivo) DispositivoResumen {
	version := d.ResolutionVersion
	if version == "" {
		version = model.ResolucionVersion2017
	}
	return DispositivoResumen{
		ID:                        d.ID,
		Modelo:                    d.Modelo,
		Tipo:                      d.Tipo,
		Foto:                      d.Foto,
		FechaPublicacion:          d.FechaPublicacion,
		Tecnologia:                model.ListOrEmpty(d.Tecnologia),
		Frecuencias:               model.ListOrEmpty(d.Frecuencias),
		GananciaAntena:            model.ListOrEmpty(d.GananciaAntena),
		EIRP:                      model.ListOrEmpty(d.EIRP),
		Modulo:                    model.ListOrEmpty(d.Modulo),
		NombreTestReport:          model.ListOrEmpty(d.NombreTestReport),
		TestReportFiles:           d.TestReportFiles,
		FechaCertificacionSubtel:  d.FechaCertificacionSubtel,
		OficioCertificacionSubtel: d.OficioCertificacionSubtel,
		ResolutionVersion:         version,
		CreatedAt:                 d.CreatedAt,
		UpdatedAt:                 d.UpdatedAt,
	}
}

// QR genera el código del distribuidor; un distribuidor solo puede pedir el suyo.
func (u *DistribuidorUsecase) QR(ctx context.Context, caller Caller, id string) (*QRCode, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := CheckDistribuidorAccess(caller, id); err != nil {
		return nil, err
	}
	d, err := u.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.qr.Generate(d)
}

func (u *DistribuidorUsecase) checkRepresentante(ctx context.Context, representante, excludeID, message string) error {
	exists, err := u.distribuidores.ExistsRepresentante(ctx, representante, excludeID)
	if err != nil {
		return repoError(err, "Error al validar representante", nil)
	}
	if exists {
		return apperror.Validation("Representante duplicado", message)
	}
	return nil
}

func validateDistribuidor(d *model.Distribuidor) error {
	if problemas := d.Validate(); len(problemas) > 0 {
		return apperror.Validation("Error de validación", strings.Join(problemas, ", "))
	}
	return nil
}
