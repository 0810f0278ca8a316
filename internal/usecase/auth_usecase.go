package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenSecrets expone la llave y la duración vigentes; config.Secrets las recarga en caliente.
type TokenSecrets interface {
	JWTSecret() []byte
	JWTExpiresIn() time.Duration
}

type Claims struct {
	UserID string
	Email  string
	Rol    string
}

type TokenService struct {
	secrets TokenSecrets
	now     func() time.Time
}

func NewTokenService(secrets TokenSecrets) *TokenService {
	return &TokenService{secrets: secrets, now: time.Now}
}

func (s *TokenService) Issue(u *model.User) (string, error) {
	claims := jwt.MapClaims{
		"id":    u.ID,
		"email": u.Email,
		"rol":   u.Rol,
		"iat":   s.now().Unix(),
		"exp":   s.now().Add(s.secrets.JWTExpiresIn()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secrets.JWTSecret())
}

// Verify acepta solo HS256 firmado con la llave vigente y sin expirar.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", token.Header["alg"])
		}
		return s.secrets.JWTSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, errors.Join(errTokenInvalido, err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errTokenInvalido
	}
	id, _ := mc["id"].(string)
	if id == "" {
		return nil, errTokenInvalido
	}
	email, _ := mc["email"].(string)
	rol, _ := mc["rol"].(string)
	return &Claims{UserID: id, Email: email, Rol: rol}, nil
}

var errTokenInvalido = apperror.Unauthenticated("Token inválido o expirado", "El token proporcionado no es válido")

type RegisterInput struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthUsecase struct {
	users  repository.UserRepository
	tokens *TokenService
}

func NewAuthUsecase(users repository.UserRepository, tokens *TokenService) *AuthUsecase {
	return &AuthUsecase{users: users, tokens: tokens}
}

// Register crea siempre un usuario con rol "usuario"; los demás roles los asigna un admin.
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	nombre, email := strings.TrimSpace(in.Nombre), normalizeEmail(in.Email)
	if nombre == "" || email == "" || in.Password == "" {
		return nil, "", apperror.Validation("Datos incompletos", "Se requieren nombre, email y password")
	}

	// 1. Email libre
	exists, err := u.users.ExistsEmail(ctx, email, "")
	if err != nil {
		return nil, "", repoError(err, "Error al registrar usuario", nil)
	}
	if exists {
		return nil, "", errEmailRegistrado()
	}

	// 2. Hashing de la contraseña
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", apperror.Internal("Error al registrar usuario", err)
	}

	// 3. Guardar
	user := &model.User{Nombre: nombre, Email: email, Password: hash, Rol: model.RolUsuario}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", errEmailRegistrado()
		}
		return nil, "", repoError(err, "Error al registrar usuario", nil)
	}

	// 4. Token
	token, err := u.tokens.Issue(user)
	if err != nil {
		return nil, "", apperror.Internal("Error al registrar usuario", err)
	}
	return user, token, nil
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (*model.User, string, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, "", apperror.Validation("Datos incompletos", "Se requieren email y password")
	}

	// 1. Buscar usuario por email
	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", errCredenciales()
	}
	if err != nil {
		return nil, "", repoError(err, "Error al iniciar sesión", nil)
	}

	// 2. Comparar password contra el hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, "", errCredenciales()
	}

	// 3. Token
	token, err := u.tokens.Issue(user)
	if err != nil {
		return nil, "", apperror.Internal("Error al iniciar sesión", err)
	}
	return user, token, nil
}

func (u *AuthUsecase) Profile(ctx context.Context, id string) (*model.User, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Error al obtener perfil", errUsuarioNoEncontrado)
	}
	return user, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func errCredenciales() error {
	return apperror.Unauthenticated("Credenciales inválidas", "Email o password incorrectos")
}

func errEmailRegistrado() error {
	return apperror.Validation("Usuario ya existe", "El email ya está registrado")
}
