package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/testutil"
	"alcance-reducido-backend/internal/usecase"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// countingDistribuidores cuenta las escrituras de referencias inversas por distribuidor.
type countingDistribuidores struct {
	repository.DistribuidorRepository
	mu     sync.Mutex
	writes map[string]int
}

func (c *countingDistribuidores) AddDispositivo(ctx context.Context, distribuidorID, dispositivoID string) error {
	c.count(distribuidorID)
	return c.DistribuidorRepository.AddDispositivo(ctx, distribuidorID, dispositivoID)
}

func (c *countingDistribuidores) RemoveDispositivo(ctx context.Context, distribuidorID, dispositivoID string) error {
	c.count(distribuidorID)
	return c.DistribuidorRepository.RemoveDispositivo(ctx, distribuidorID, dispositivoID)
}

func (c *countingDistribuidores) count(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes[id]++
}

func (c *countingDistribuidores) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = map[string]int{}
}

type DispositivoUsecaseSuite struct {
	suite.Suite
	mode           model.OwnershipMode
	ctx            context.Context
	db             *gorm.DB
	distribuidores *countingDistribuidores
	marcas         repository.MarcaRepository
	uc             *usecase.DispositivoUsecase

	samsung, xiaomi *model.Marca
	a, b, c         *model.Distribuidor
}

func TestDispositivoUsecaseMulti(t *testing.T) {
	suite.Run(t, &DispositivoUsecaseSuite{mode: model.OwnershipMulti})
}

func TestDispositivoUsecaseSingle(t *testing.T) {
	suite.Run(t, &DispositivoUsecaseSuite{mode: model.OwnershipSingle})
}

func (s *DispositivoUsecaseSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	s.distribuidores = &countingDistribuidores{
		DistribuidorRepository: repository.NewDistribuidorRepository(s.db),
		writes:                 map[string]int{},
	}
	s.marcas = repository.NewMarcaRepository(s.db)
	s.uc = usecase.NewDispositivoUsecase(
		repository.NewDispositivoRepository(s.db, s.mode),
		s.marcas,
		s.distribuidores,
		logger.NewTestLogger(),
	)

	s.samsung = s.marca("Samsung")
	s.xiaomi = s.marca("Xiaomi")
	s.a, s.b, s.c = s.distribuidor("Entel"), s.distribuidor("Movistar"), s.distribuidor("Claro")
}

func (s *DispositivoUsecaseSuite) marca(nombre string) *model.Marca {
	m := &model.Marca{Fabricante: nombre, Nombre: nombre}
	s.Require().NoError(s.marcas.Create(s.ctx, m))
	return m
}

func (s *DispositivoUsecaseSuite) distribuidor(representante string) *model.Distribuidor {
	d := &model.Distribuidor{Representante: representante}
	s.Require().NoError(s.distribuidores.Create(s.ctx, d))
	return d
}

func (s *DispositivoUsecaseSuite) input(format string, args ...any) usecase.DispositivoInput {
	var in usecase.DispositivoInput
	s.Require().NoError(json.Unmarshal([]byte(fmt.Sprintf(format, args...)), &in))
	return in
}

func (s *DispositivoUsecaseSuite) backRefs(d *model.Distribuidor) []string {
	ids, err := s.distribuidores.DispositivoIDs(s.ctx, d.ID)
	s.Require().NoError(err)
	return ids
}

func (s *DispositivoUsecaseSuite) create(modelo string, distribuidores ...*model.Distribuidor) *model.Dispositivo {
	ids := make([]string, 0, len(distribuidores))
	for _, d := range distribuidores {
		ids = append(ids, d.ID)
	}
	refs, _ := json.Marshal(ids)
	d, err := s.uc.Create(s.ctx, s.input(`{"modelo":%q,"marca":%q,"distribuidores":%s}`, modelo, s.samsung.ID, refs))
	s.Require().NoError(err)
	return d
}

func (s *DispositivoUsecaseSuite) requireKind(err error, kind apperror.Kind, title string) {
	s.Require().Error(err)
	s.Equal(kind, apperror.KindOf(err))
	var appErr *apperror.Error
	s.Require().ErrorAs(err, &appErr)
	s.Equal(title, appErr.Title)
}

func (s *DispositivoUsecaseSuite) TestCreateAddsBackReference() {
	d, err := s.uc.Create(s.ctx, s.input(`{
		"modelo":"  SM-A546E  ","marca":%q,"distribuidor":%q,
		"tecnologia":["4G","5G"],"frecuencias":"no-array","resolutionVersion":2025,
		"fechaPublicacion":"2025-01-22","fechaCertificacionSubtel":"2025-01-15T10:00:00Z"
	}`, s.samsung.ID, s.a.ID))
	s.Require().NoError(err)

	s.Equal("SM-A546E", d.Modelo)
	s.Equal([]string{s.a.ID}, d.DistribuidorIDs)
	s.Require().Len(d.Distribuidores, 1)
	s.Equal("Entel", d.Distribuidores[0].Representante)
	s.Equal("Samsung", d.NombreMarca())
	s.Equal([]string{"4G", "5G"}, []string(d.Tecnologia))
	s.Empty(d.Frecuencias)
	s.Equal("2025", d.ResolutionVersion)
	s.Equal(2025, d.FechaPublicacion.Year())
	s.Require().NotNil(d.FechaCertificacionSubtel)

	s.Equal([]string{d.ID}, s.backRefs(s.a))
	s.Equal(1, s.distribuidores.writes[s.a.ID])
}

func (s *DispositivoUsecaseSuite) TestCreateDefaultsInvalidResolutionVersion() {
	d, err := s.uc.Create(s.ctx, s.input(`{"modelo":"X1","marca":%q,"distribuidor":%q,"resolutionVersion":"1999"}`, s.samsung.ID, s.a.ID))
	s.Require().NoError(err)
	s.Equal("2017", d.ResolutionVersion)
}

func (s *DispositivoUsecaseSuite) TestCreateValidationOrder() {
	_, err := s.uc.Create(s.ctx, s.input(`{"modelo":"  ","marca":%q}`, s.samsung.ID))
	s.requireKind(err, apperror.KindValidation, "Datos incompletos")

	s.create("Duplicado", s.a)
	_, err = s.uc.Create(s.ctx, s.input(`{"modelo":"Duplicado","marca":%q,"distribuidor":%q}`, s.samsung.ID, s.a.ID))
	s.requireKind(err, apperror.KindValidation, "Modelo duplicado")

	_, err = s.uc.Create(s.ctx, s.input(`{"modelo":"Nuevo","marca":%q,"distribuidor":%q}`, model.NewID(), s.a.ID))
	s.requireKind(err, apperror.KindNotFound, "Marca no encontrada")

	ghost := model.NewID()
	_, err = s.uc.Create(s.ctx, s.input(`{"modelo":"Nuevo","marca":%q,"distribuidor":%q}`, s.samsung.ID, ghost))
	s.requireKind(err, apperror.KindValidation, "Distribuidor inválido")
	s.Contains(err.Error(), ghost)

	_, err = s.uc.Create(s.ctx, s.input(`{"modelo":"Nuevo","marca":%q,"distribuidor":%q,"fechaPublicacion":"ayer"}`, s.samsung.ID, s.a.ID))
	s.requireKind(err, apperror.KindValidation, "Fecha inválida")

	// Nada quedó escrito por las solicitudes rechazadas.
	var count int64
	s.Require().NoError(s.db.Model(&model.Dispositivo{}).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *DispositivoUsecaseSuite) TestModeloIsCaseSensitive() {
	s.create("Galaxy", s.a)
	_, err := s.uc.Create(s.ctx, s.input(`{"modelo":"galaxy","marca":%q,"distribuidor":%q}`, s.samsung.ID, s.a.ID))
	s.NoError(err)
}

func (s *DispositivoUsecaseSuite) TestMultiRequiresAtLeastOneDistribuidor() {
	if s.mode != model.OwnershipMulti {
		s.T().Skip("solo aplica a la generación multi")
	}
	_, err := s.uc.Create(s.ctx, s.input(`{"modelo":"X","marca":%q}`, s.samsung.ID))
	s.requireKind(err, apperror.KindValidation, "Datos incompletos")

	d := s.create("Y", s.a)
	_, err = s.uc.Update(s.ctx, d.ID, s.input(`{"distribuidores":[]}`))
	s.requireKind(err, apperror.KindValidation, "Datos incompletos")
	_, err = s.uc.Update(s.ctx, d.ID, s.input(`{"distribuidores":null}`))
	s.requireKind(err, apperror.KindValidation, "Datos incompletos")
}

func (s *DispositivoUsecaseSuite) TestSingleAcceptsNoDistribuidorAndRejectsTwo() {
	if s.mode != model.OwnershipSingle {
		s.T().Skip("solo aplica a la generación single")
	}
	d, err := s.uc.Create(s.ctx, s.input(`{"modelo":"Sin dueño","marca":%q,"distribuidor":null}`, s.samsung.ID))
	s.Require().NoError(err)
	s.Empty(d.DistribuidorIDs)

	_, err = s.uc.Create(s.ctx, s.input(`{"modelo":"Dos","marca":%q,"distribuidores":[%q,%q]}`, s.samsung.ID, s.a.ID, s.b.ID))
	s.requireKind(err, apperror.KindValidation, "Distribuidor inválido")
}

func (s *DispositivoUsecaseSuite) TestUpdateWritesOnlySymmetricDifference() {
	if s.mode != model.OwnershipMulti {
		s.T().Skip("solo aplica a la generación multi")
	}
	d := s.create("Redmi Note 13", s.a, s.b)
	s.distribuidores.reset()

	updated, err := s.uc.Update(s.ctx, d.ID, s.input(`{"distribuidores":[%q,%q]}`, s.b.ID, s.c.ID))
	s.Require().NoError(err)

	s.Equal(1, s.distribuidores.writes[s.a.ID])
	s.Equal(0, s.distribuidores.writes[s.b.ID])
	s.Equal(1, s.distribuidores.writes[s.c.ID])

	s.Equal([]string{s.b.ID, s.c.ID}, updated.DistribuidorIDs)
	s.Empty(s.backRefs(s.a))
	s.Equal([]string{d.ID}, s.backRefs(s.b))
	s.Equal([]string{d.ID}, s.backRefs(s.c))
}

func (s *DispositivoUsecaseSuite) TestUpdateChangesSingleDistribuidor() {
	d := s.create("Moto G84", s.a)
	s.distribuidores.reset()

	updated, err := s.uc.Update(s.ctx, d.ID, s.input(`{"distribuidor":%q}`, s.b.ID))
	s.Require().NoError(err)
	s.Equal([]string{s.b.ID}, updated.DistribuidorIDs)
	s.Equal(1, s.distribuidores.writes[s.a.ID])
	s.Equal(1, s.distribuidores.writes[s.b.ID])
	s.Empty(s.backRefs(s.a))
	s.Equal([]string{d.ID}, s.backRefs(s.b))

	// Mismo distribuidor: sin escrituras.
	s.distribuidores.reset()
	_, err = s.uc.Update(s.ctx, d.ID, s.input(`{"distribuidor":%q}`, s.b.ID))
	s.Require().NoError(err)
	s.Empty(s.distribuidores.writes)
}

func (s *DispositivoUsecaseSuite) TestUpdateIsPartial() {
	d, err := s.uc.Create(s.ctx, s.input(`{"modelo":"A15","marca":%q,"distribuidor":%q,"tipo":"telefono","oficioCertificacionSubtel":"Oficio-1","fechaCertificacionSubtel":"2025-01-15"}`,
		s.samsung.ID, s.a.ID))
	s.Require().NoError(err)
	s.distribuidores.reset()

	updated, err := s.uc.Update(s.ctx, d.ID, s.input(`{"marca":%q,"fechaCertificacionSubtel":null,"modulo":["M1"],"resolutionVersion":"2025"}`, s.xiaomi.ID))
	s.Require().NoError(err)

	s.Equal("A15", updated.Modelo)
	s.Equal("telefono", updated.Tipo)
	s.Equal("Oficio-1", updated.OficioCertificacionSubtel)
	s.Equal("Xiaomi", updated.NombreMarca())
	s.Nil(updated.FechaCertificacionSubtel)
	s.Equal([]string{"M1"}, []string(updated.Modulo))
	s.Equal("2025", updated.ResolutionVersion)
	s.Equal([]string{s.a.ID}, updated.DistribuidorIDs)
	s.Empty(s.distribuidores.writes)
}

func (s *DispositivoUsecaseSuite) TestUpdateRejectsInvalidValuesBeforeWriting() {
	d := s.create("Pixel", s.a)
	otro := s.create("Otro", s.a)
	s.distribuidores.reset()

	_, err := s.uc.Update(s.ctx, d.ID, s.input(`{"resolutionVersion":"2019","distribuidor":%q}`, s.b.ID))
	s.requireKind(err, apperror.KindValidation, "Valor inválido")

	_, err = s.uc.Update(s.ctx, d.ID, s.input(`{"fechaPublicacion":"","distribuidor":%q}`, s.b.ID))
	s.requireKind(err, apperror.KindValidation, "Fecha inválida")

	_, err = s.uc.Update(s.ctx, d.ID, s.input(`{"modelo":%q}`, otro.Modelo))
	s.requireKind(err, apperror.KindValidation, "Modelo duplicado")

	_, err = s.uc.Update(s.ctx, d.ID, s.input(`{"distribuidor":%q}`, model.NewID()))
	s.requireKind(err, apperror.KindValidation, "Distribuidor inválido")

	s.Empty(s.distribuidores.writes)
	found, err := s.uc.GetPublic(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal([]string{s.a.ID}, found.DistribuidorIDs)
}

func (s *DispositivoUsecaseSuite) TestUpdateOwnModeloIsAllowed() {
	d := s.create("Pixel 8", s.a)
	_, err := s.uc.Update(s.ctx, d.ID, s.input(`{"modelo":"Pixel 8"}`))
	s.NoError(err)
}

func (s *DispositivoUsecaseSuite) TestDeletePullsBackReferences() {
	d := s.create("Borrable", s.a)
	s.Require().NoError(s.uc.Delete(s.ctx, d.ID))

	s.Empty(s.backRefs(s.a))
	_, err := s.uc.GetPublic(s.ctx, d.ID)
	s.requireKind(err, apperror.KindNotFound, "Dispositivo no encontrado")

	err = s.uc.Delete(s.ctx, d.ID)
	s.requireKind(err, apperror.KindNotFound, "Dispositivo no encontrado")
	err = s.uc.Delete(s.ctx, "no-es-un-id")
	s.requireKind(err, apperror.KindValidation, "ID inválido")
}

func (s *DispositivoUsecaseSuite) TestScopedReads() {
	propio := s.create("Propio", s.a)
	ajeno := s.create("Ajeno", s.b)
	distribuidor := usecase.Caller{ID: model.NewID(), Rol: model.RolDistribuidor, DistribuidorID: s.a.ID}
	admin := usecase.Caller{ID: model.NewID(), Rol: model.RolAdmin}

	list, err := s.uc.List(s.ctx, distribuidor, usecase.DispositivoQuery{Distribuidor: s.b.ID})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(propio.ID, list[0].ID)

	list, err = s.uc.List(s.ctx, admin, usecase.DispositivoQuery{Distribuidor: s.b.ID})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(ajeno.ID, list[0].ID)

	_, err = s.uc.Get(s.ctx, distribuidor, ajeno.ID)
	s.requireKind(err, apperror.KindForbidden, "Acceso denegado")
	_, err = s.uc.Get(s.ctx, distribuidor, model.NewID())
	s.requireKind(err, apperror.KindNotFound, "Dispositivo no encontrado")
	_, err = s.uc.Get(s.ctx, admin, ajeno.ID)
	s.NoError(err)
}

func (s *DispositivoUsecaseSuite) TestPublicListSortsByBrandAndFilters() {
	apple := s.marca("Ápple")
	_, err := s.uc.Create(s.ctx, s.input(`{"modelo":"Redmi","marca":%q,"distribuidor":%q}`, s.xiaomi.ID, s.a.ID))
	s.Require().NoError(err)
	_, err = s.uc.Create(s.ctx, s.input(`{"modelo":"iPhone","marca":%q,"distribuidor":%q,"tipo":"telefono"}`, apple.ID, s.a.ID))
	s.Require().NoError(err)
	s.create("Galaxy", s.a)

	list, err := s.uc.ListPublic(s.ctx, usecase.DispositivoQuery{})
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]string{"Ápple", "Samsung", "Xiaomi"}, []string{list[0].NombreMarca(), list[1].NombreMarca(), list[2].NombreMarca()})

	list, err = s.uc.ListPublic(s.ctx, usecase.DispositivoQuery{Marca: "XIAO"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Redmi", list[0].Modelo)

	list, err = s.uc.ListPublic(s.ctx, usecase.DispositivoQuery{Marca: "nokia"})
	s.Require().NoError(err)
	s.Empty(list)

	list, err = s.uc.ListPublic(s.ctx, usecase.DispositivoQuery{Tipo: "telefono"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("iPhone", list[0].Modelo)
}
