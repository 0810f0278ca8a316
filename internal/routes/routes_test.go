package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"alcance-reducido-backend/config"
	"alcance-reducido-backend/internal/logger"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/qr"
	"alcance-reducido-backend/internal/repository"
	"alcance-reducido-backend/internal/routes"
	"alcance-reducido-backend/internal/testutil"
	"alcance-reducido-backend/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type testSecrets struct{}

func (testSecrets) JWTSecret() []byte           { return []byte("routes-test") }
func (testSecrets) JWTExpiresIn() time.Duration { return time.Hour }
func (testSecrets) BaseURL() string             { return "http://api.test" }

type memoryStore struct {
	mu   sync.Mutex
	keys []string
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return nil
}

func (m *memoryStore) URL(key string) string { return "http://cdn.test/" + key }

type RoutesSuite struct {
	suite.Suite
	ctx    context.Context
	db     *gorm.DB
	app    *fiber.App
	tokens *usecase.TokenService
	store  *memoryStore

	admin, propio, ajeno, usuario string
	distPropio, distAjeno         *model.Distribuidor
	dispositivoAjeno              *model.Dispositivo
}

func TestRoutesSuite(t *testing.T) {
	suite.Run(t, new(RoutesSuite))
}

func (s *RoutesSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	s.tokens = usecase.NewTokenService(testSecrets{})
	s.store = &memoryStore{}

	s.app = routes.NewApp(routes.AppOptions{Name: "test", BodyLimit: 64 << 20}, &routes.Deps{
		DB:      s.db,
		Log:     logger.NewTestLogger(),
		Mode:    model.OwnershipMulti,
		Tokens:  s.tokens,
		BaseURL: testSecrets{},
		QR:      qr.NewPNGEncoder(),
		Store:   s.store,
		Upload:  config.Upload{MaxImageMB: 5, MaxArchiveMB: 30, MaxFiles: 10},
	})

	distribuidores := repository.NewDistribuidorRepository(s.db)
	s.distPropio = &model.Distribuidor{Representante: "Propio"}
	s.distAjeno = &model.Distribuidor{Representante: "Entel Chile"}
	s.Require().NoError(distribuidores.Create(s.ctx, s.distPropio))
	s.Require().NoError(distribuidores.Create(s.ctx, s.distAjeno))

	s.admin = s.user("admin@test.cl", model.RolAdmin, nil)
	s.propio = s.user("propio@test.cl", model.RolDistribuidor, &s.distPropio.ID)
	s.ajeno = s.user("ajeno@test.cl", model.RolDistribuidor, &s.distAjeno.ID)
	s.usuario = s.user("usuario@test.cl", model.RolUsuario, nil)

	marca := &model.Marca{Fabricante: "Samsung", Nombre: "Samsung"}
	s.Require().NoError(repository.NewMarcaRepository(s.db).Create(s.ctx, marca))

	res, body := s.do(http.MethodPost, "/api/dispositivos", s.admin,
		`{"modelo":"Galaxy","marca":"`+marca.ID+`","distribuidores":["`+s.distAjeno.ID+`"]}`)
	s.Require().Equal(fiber.StatusCreated, res.StatusCode, body)
	var created struct {
		Dispositivo struct {
			ID string `json:"_id"`
		} `json:"dispositivo"`
	}
	s.Require().NoError(json.Unmarshal([]byte(body), &created))
	s.dispositivoAjeno = &model.Dispositivo{Base: model.Base{ID: created.Dispositivo.ID}}
}

func (s *RoutesSuite) user(email, rol string, distribuidorID *string) string {
	u := &model.User{Nombre: email, Email: email, Password: "x", Rol: rol, DistribuidorID: distribuidorID}
	s.Require().NoError(repository.NewUserRepository(s.db).Create(s.ctx, u))
	token, err := s.tokens.Issue(u)
	s.Require().NoError(err)
	return token
}

func (s *RoutesSuite) send(req *http.Request, token string) (*http.Response, string) {
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	res, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	raw, err := io.ReadAll(res.Body)
	s.Require().NoError(err)
	return res, string(raw)
}

func (s *RoutesSuite) do(method, path, token, body string) (*http.Response, string) {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return s.send(req, token)
}

func (s *RoutesSuite) upload(path, field, filename string, size int) (*http.Response, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	s.Require().NoError(err)
	_, err = part.Write(make([]byte, size))
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return s.send(req, s.admin)
}

func (s *RoutesSuite) TestMissingOrInvalidTokenIs401() {
	res, body := s.do(http.MethodGet, "/api/dispositivos", "", "")
	s.Equal(fiber.StatusUnauthorized, res.StatusCode)
	s.Contains(body, "Token de acceso requerido")

	res, _ = s.do(http.MethodGet, "/api/dispositivos", "no-es-un-jwt", "")
	s.Equal(fiber.StatusUnauthorized, res.StatusCode)
}

func (s *RoutesSuite) TestDeletedUserTokenIs401() {
	var u model.User
	s.Require().NoError(s.db.Where("email = ?", "usuario@test.cl").First(&u).Error)
	s.Require().NoError(repository.NewUserRepository(s.db).Delete(s.ctx, u.ID))

	res, _ := s.do(http.MethodGet, "/api/auth/profile", s.usuario, "")
	s.Equal(fiber.StatusUnauthorized, res.StatusCode)
}

func (s *RoutesSuite) TestScopeMismatchIs403NotFoundIs404() {
	res, _ := s.do(http.MethodGet, "/api/dispositivos/"+s.dispositivoAjeno.ID, s.propio, "")
	s.Equal(fiber.StatusForbidden, res.StatusCode)

	res, _ = s.do(http.MethodGet, "/api/dispositivos/"+s.dispositivoAjeno.ID, s.ajeno, "")
	s.Equal(fiber.StatusOK, res.StatusCode)

	res, _ = s.do(http.MethodGet, "/api/dispositivos/"+model.NewID(), s.propio, "")
	s.Equal(fiber.StatusNotFound, res.StatusCode)

	res, body := s.do(http.MethodGet, "/api/dispositivos/123", s.admin, "")
	s.Equal(fiber.StatusBadRequest, res.StatusCode)
	s.Contains(body, "ID inválido")

	res, _ = s.do(http.MethodGet, "/api/distribuidores/"+s.distAjeno.ID, s.propio, "")
	s.Equal(fiber.StatusForbidden, res.StatusCode)
}

func (s *RoutesSuite) TestScopedListOnlyShowsOwnDevices() {
	_, body := s.do(http.MethodGet, "/api/dispositivos", s.propio, "")
	s.JSONEq(`{"count":0,"dispositivos":[]}`, body)

	_, body = s.do(http.MethodGet, "/api/dispositivos?distribuidor="+s.distPropio.ID, s.admin, "")
	s.JSONEq(`{"count":0,"dispositivos":[]}`, body)

	_, body = s.do(http.MethodGet, "/api/dispositivos", s.ajeno, "")
	s.Contains(body, `"count":1`)
}

func (s *RoutesSuite) TestRoleGuards() {
	res, body := s.do(http.MethodGet, "/api/dispositivos", s.usuario, "")
	s.Equal(fiber.StatusForbidden, res.StatusCode)
	s.Contains(body, "Acceso denegado")

	res, _ = s.do(http.MethodPost, "/api/marcas", s.propio, `{"fabricante":"x","marca":"y"}`)
	s.Equal(fiber.StatusForbidden, res.StatusCode)

	res, _ = s.do(http.MethodGet, "/api/marcas", s.usuario, "")
	s.Equal(fiber.StatusOK, res.StatusCode)

	res, _ = s.do(http.MethodGet, "/api/users", s.propio, "")
	s.Equal(fiber.StatusForbidden, res.StatusCode)

	res, _ = s.do(http.MethodGet, "/api/dispositivos/export", s.propio, "")
	s.Equal(fiber.StatusForbidden, res.StatusCode)
}

func (s *RoutesSuite) TestPublicEndpointsNeedNoToken() {
	res, body := s.do(http.MethodGet, "/api/dispositivos/public", "", "")
	s.Equal(fiber.StatusOK, res.StatusCode)
	s.Contains(body, `"count":1`)

	res, body = s.do(http.MethodGet, "/api/distribuidores/entel-chile/info", "", "")
	s.Equal(fiber.StatusOK, res.StatusCode)
	s.Contains(body, s.distAjeno.ID)

	res, body = s.do(http.MethodGet, "/api/distribuidores/representante/Entel%20Chile", "", "")
	s.Equal(fiber.StatusOK, res.StatusCode)
	s.Contains(body, `"totalDispositivos":1`)

	res, body = s.do(http.MethodGet, "/api/distribuidores/nombres", "", "")
	s.Equal(fiber.StatusOK, res.StatusCode)
	s.Contains(body, `"count":2`)
}

func (s *RoutesSuite) TestQRPointsToInfoEndpoint() {
	res, body := s.do(http.MethodGet, "/api/distribuidores/"+s.distPropio.ID+"/qr", s.propio, "")
	s.Require().Equal(fiber.StatusOK, res.StatusCode)
	s.Contains(body, `"url":"http://api.test/api/distribuidores/`+s.distPropio.ID+`/info"`)
}

func (s *RoutesSuite) TestExportReturnsSpreadsheet() {
	res, body := s.do(http.MethodGet, "/api/dispositivos/export", s.admin, "")
	s.Require().Equal(fiber.StatusOK, res.StatusCode)
	s.Contains(res.Header.Get(fiber.HeaderContentType), "spreadsheetml")
	s.Contains(res.Header.Get(fiber.HeaderContentDisposition), ".xlsx")
	s.True(bytes.HasPrefix([]byte(body), []byte("PK")))
}

func (s *RoutesSuite) TestUploadLimitsDependOnClass() {
	seisMB := 6 << 20

	res, body := s.upload("/api/upload", "foto", "grande.png", seisMB)
	s.Equal(fiber.StatusBadRequest, res.StatusCode)
	s.Contains(body, "Archivo demasiado grande")
	s.Empty(s.store.keys)

	res, body = s.upload("/api/upload", "testReport", "reporte.zip", seisMB)
	s.Require().Equal(fiber.StatusOK, res.StatusCode, body)
	s.Contains(body, `"key":"test-reports/`)

	res, body = s.upload("/api/upload/multiple", "images", "a.png", 100)
	s.Require().Equal(fiber.StatusOK, res.StatusCode, body)
	s.Contains(body, "1 imagen(es) subida(s) exitosamente")

	res, body = s.upload("/api/upload", "otro", "a.png", 100)
	s.Equal(fiber.StatusBadRequest, res.StatusCode)
	s.Contains(body, "No se proporcionó ningún archivo")
}

func (s *RoutesSuite) TestServiceRoutes() {
	res, _ := s.do(http.MethodGet, "/health", "", "")
	s.Equal(fiber.StatusOK, res.StatusCode)

	res, body := s.do(http.MethodGet, "/api/no-existe", "", "")
	s.Equal(fiber.StatusNotFound, res.StatusCode)
	s.Contains(body, "Ruta no encontrada")

	res, body = s.do(http.MethodGet, "/api/dashboard", s.admin, "")
	s.Equal(fiber.StatusOK, res.StatusCode)
	s.Contains(body, `"totalDispositivos":1`)
}

func (s *RoutesSuite) TestAuthFlow() {
	res, body := s.do(http.MethodPost, "/api/auth/register", "", `{"nombre":"Nuevo","email":"nuevo@test.cl","password":"clave","rol":"admin"}`)
	s.Require().Equal(fiber.StatusCreated, res.StatusCode, body)
	s.Contains(body, `"rol":"usuario"`)
	s.NotContains(body, "clave")

	res, body = s.do(http.MethodPost, "/api/auth/login", "", `{"email":"nuevo@test.cl","password":"clave"}`)
	s.Require().Equal(fiber.StatusOK, res.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal([]byte(body), &login))

	res, body = s.do(http.MethodGet, "/api/auth/profile", login.Token, "")
	s.Equal(fiber.StatusOK, res.StatusCode)
	s.Contains(body, "nuevo@test.cl")
}
