package database_test

import (
	"context"
	"testing"

	"alcance-reducido-backend/config"
	"alcance-reducido-backend/internal/database"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/testutil"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type DatabaseTestSuite struct {
	suite.Suite
	ctx            context.Context
	log            logger.Logger
	db             *gorm.DB
	marca          *model.Marca
	distribuidores repository.DistribuidorRepository
	multi          repository.DispositivoRepository
	single         repository.DispositivoRepository
	users          repository.UserRepository
}

func TestDatabaseTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}

func (s *DatabaseTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.log = logger.NewTestLogger()
	s.db = testutil.NewDB(s.T())
	s.distribuidores = repository.NewDistribuidorRepository(s.db)
	s.multi = repository.NewDispositivoRepository(s.db, model.OwnershipMulti)
	s.single = repository.NewDispositivoRepository(s.db, model.OwnershipSingle)
	s.users = repository.NewUserRepository(s.db)

	s.marca = &model.Marca{Fabricante: "Samsung Electronics", Nombre: "Samsung"}
	s.Require().NoError(repository.NewMarcaRepository(s.db).Create(s.ctx, s.marca))
}

func (s *DatabaseTestSuite) distribuidor(representante string) *model.Distribuidor {
	d := &model.Distribuidor{Representante: representante}
	s.Require().NoError(s.distribuidores.Create(s.ctx, d))
	return d
}

// dispositivo crea el dispositivo con la generación indicada y sus referencias inversas.
func (s *DatabaseTestSuite) dispositivo(repo repository.DispositivoRepository, modelo string, refs ...*model.Distribuidor) *model.Dispositivo {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	d := &model.Dispositivo{Modelo: modelo, MarcaID: s.marca.ID, DistribuidorIDs: ids}
	s.Require().NoError(repo.Create(s.ctx, d))
	for _, id := range ids {
		s.Require().NoError(s.distribuidores.AddDispositivo(s.ctx, id, d.ID))
	}
	return d
}

func (s *DatabaseTestSuite) backRefs(d *model.Distribuidor) []string {
	ids, err := s.distribuidores.DispositivoIDs(s.ctx, d.ID)
	s.Require().NoError(err)
	return ids
}

func (s *DatabaseTestSuite) refsAsSingle(d *model.Dispositivo) []string {
	found, err := s.single.FindByID(s.ctx, d.ID)
	s.Require().NoError(err)
	return found.DistribuidorIDs
}

func (s *DatabaseTestSuite) vinculos() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&model.DispositivoDistribuidor{}).Count(&n).Error)
	return n
}

func (s *DatabaseTestSuite) TestCollapseDryRunWritesNothing() {
	a, b := s.distribuidor("Entel"), s.distribuidor("Movistar")
	s.dispositivo(s.multi, "cero")
	s.dispositivo(s.multi, "uno", a)
	varios := s.dispositivo(s.multi, "varios", b, a)

	report, err := database.CollapseToSingle(s.ctx, s.db, true, s.log)
	s.Require().NoError(err)
	s.Equal(database.CollapseReport{Migrados: 3, SinDistribuidor: 1, ConMultiples: 1}, report)

	s.Equal(int64(3), s.vinculos())
	s.Empty(s.refsAsSingle(varios))
	s.ElementsMatch([]string{varios.ID}, s.backRefs(b))
	s.Len(s.backRefs(a), 2)
}

func (s *DatabaseTestSuite) TestCollapseKeepsFirstAndFixesBackReferences() {
	a, b, c := s.distribuidor("Entel"), s.distribuidor("Movistar"), s.distribuidor("Claro")
	cero := s.dispositivo(s.multi, "cero")
	uno := s.dispositivo(s.multi, "uno", a)
	varios := s.dispositivo(s.multi, "varios", b, a, c)
	migrado := s.dispositivo(s.single, "migrado", c)

	report, err := database.CollapseToSingle(s.ctx, s.db, false, s.log)
	s.Require().NoError(err)
	s.Equal(database.CollapseReport{Migrados: 3, SinDistribuidor: 1, ConMultiples: 1}, report)

	s.Zero(s.vinculos())
	s.Empty(s.refsAsSingle(cero))
	s.Equal([]string{a.ID}, s.refsAsSingle(uno))
	s.Equal([]string{b.ID}, s.refsAsSingle(varios))
	s.Equal([]string{c.ID}, s.refsAsSingle(migrado))

	s.ElementsMatch([]string{uno.ID}, s.backRefs(a))
	s.ElementsMatch([]string{varios.ID}, s.backRefs(b))
	s.ElementsMatch([]string{migrado.ID}, s.backRefs(c))

	// Una segunda pasada no cambia referencias; solo vuelve a contar los que no tienen distribuidor.
	report, err = database.CollapseToSingle(s.ctx, s.db, false, s.log)
	s.Require().NoError(err)
	s.Equal(database.CollapseReport{Migrados: 1, SinDistribuidor: 1}, report)
	s.Equal([]string{b.ID}, s.refsAsSingle(varios))
	s.ElementsMatch([]string{varios.ID}, s.backRefs(b))
}

func (s *DatabaseTestSuite) TestCollapseReplacesStaleColumn() {
	a, b := s.distribuidor("Entel"), s.distribuidor("Movistar")
	d := s.dispositivo(s.multi, "mixto", a)
	s.Require().NoError(s.db.Model(&model.Dispositivo{}).Where("id = ?", d.ID).Update("distribuidor_id", b.ID).Error)
	s.Require().NoError(s.distribuidores.AddDispositivo(s.ctx, b.ID, d.ID))

	_, err := database.CollapseToSingle(s.ctx, s.db, false, s.log)
	s.Require().NoError(err)

	s.Equal([]string{a.ID}, s.refsAsSingle(d))
	s.Empty(s.backRefs(b))
	s.ElementsMatch([]string{d.ID}, s.backRefs(a))
}

func (s *DatabaseTestSuite) countAdmins() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&model.User{}).Where("rol = ?", model.RolAdmin).Count(&n).Error)
	return n
}

func (s *DatabaseTestSuite) TestEnsureDefaultAdmin() {
	// Sin credenciales no se crea nada.
	s.Require().NoError(database.EnsureDefaultAdmin(s.ctx, s.users, config.Admin{Nombre: "Admin"}, s.log))
	s.Zero(s.countAdmins())

	admin := config.Admin{Nombre: "Admin", Email: " Admin@Catalogo.CL ", Password: "secreta"}
	s.Require().NoError(database.EnsureDefaultAdmin(s.ctx, s.users, admin, s.log))
	s.Equal(int64(1), s.countAdmins())

	user, err := s.users.FindByEmail(s.ctx, "admin@catalogo.cl")
	s.Require().NoError(err)
	s.Equal(model.RolAdmin, user.Rol)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secreta")))

	// Idempotente: otra contraseña no reemplaza a la existente.
	admin.Password = "otra"
	s.Require().NoError(database.EnsureDefaultAdmin(s.ctx, s.users, admin, s.log))
	s.Equal(int64(1), s.countAdmins())
	user, err = s.users.FindByEmail(s.ctx, "admin@catalogo.cl")
	s.Require().NoError(err)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secreta")))
}

func (s *DatabaseTestSuite) TestEnsureDefaultAdminSkipsWhenAnyAdminExists() {
	existing := &model.User{Nombre: "Otro", Email: "otro@catalogo.cl", Password: "x", Rol: model.RolAdmin}
	s.Require().NoError(s.users.Create(s.ctx, existing))

	admin := config.Admin{Nombre: "Admin", Email: "admin@catalogo.cl", Password: "secreta"}
	s.Require().NoError(database.EnsureDefaultAdmin(s.ctx, s.users, admin, s.log))
	s.Equal(int64(1), s.countAdmins())
	_, err := s.users.FindByEmail(s.ctx, "admin@catalogo.cl")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *DatabaseTestSuite) TestSeedAllIsIdempotent() {
	s.Require().NoError(database.SeedAll(s.db, s.log))
	s.Require().NoError(database.SeedAll(s.db, s.log))

	count := func(m any) int64 {
		var n int64
		s.Require().NoError(s.db.Model(m).Count(&n).Error)
		return n
	}
	// Samsung ya existía desde SetupTest con el mismo fabricante.
	s.Equal(int64(3), count(&model.Marca{}))
	s.Equal(int64(2), count(&model.Distribuidor{}))
	s.Equal(int64(4), count(&model.Dispositivo{}))
	s.Equal(int64(4), count(&model.DistribuidorDispositivo{}))

	// Ambas generaciones quedan de acuerdo en los datos de ejemplo.
	list, err := s.multi.List(s.ctx, repository.DispositivoFilter{})
	s.Require().NoError(err)
	s.Require().Len(list, 4)
	for _, d := range list {
		asSingle := s.refsAsSingle(&d)
		s.Len(d.DistribuidorIDs, 1, d.Modelo)
		s.Equal(d.DistribuidorIDs, asSingle, d.Modelo)
	}
}
