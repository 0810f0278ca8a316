package usecase

import (
	"context"
	"errors"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/repository"
)

type UserInput struct {
	Nombre         model.Optional[model.FlexString] `json:"nombre"`
	Email          model.Optional[model.FlexString] `json:"email"`
	Password       model.Optional[model.FlexString] `json:"password"`
	Rol            model.Optional[model.FlexString] `json:"rol"`
	DistribuidorID model.Optional[model.FlexString] `json:"distribuidorId"`
}

var errUsuarioNoEncontrado = apperror.NotFound("Usuario no encontrado", "")

type UserUsecase struct {
	users          repository.UserRepository
	distribuidores repository.DistribuidorRepository
}

func NewUserUsecase(users repository.UserRepository, distribuidores repository.DistribuidorRepository) *UserUsecase {
	return &UserUsecase{users: users, distribuidores: distribuidores}
}

func (u *UserUsecase) List(ctx context.Context) ([]model.User, error) {
	users, err := u.users.List(ctx)
	return users, repoError(err, "Error al obtener usuarios", nil)
}

func (u *UserUsecase) Get(ctx context.Context, id string) (*model.User, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Error al obtener usuario", errUsuarioNoEncontrado)
	}
	return user, nil
}

func (u *UserUsecase) Create(ctx context.Context, in UserInput) (*model.User, error) {
	nombre, email, password := text(in.Nombre), normalizeEmail(text(in.Email)), text(in.Password)
	if nombre == "" || email == "" || password == "" {
		return nil, apperror.Validation("Datos incompletos", "Se requieren nombre, email y password")
	}

	// 1. Email libre
	exists, err := u.users.ExistsEmail(ctx, email, "")
	if err != nil {
		return nil, repoError(err, "Error al crear usuario", nil)
	}
	if exists {
		return nil, errEmailRegistrado()
	}

	// 2. Rol y distribuidor asociado
	rol := text(in.Rol)
	if rol == "" {
		rol = model.RolUsuario
	}
	distribuidorID, err := u.resolveAfiliacion(ctx, rol, text(in.DistribuidorID))
	if err != nil {
		return nil, err
	}

	// 3. Hashing y guardado
	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperror.Internal("Error al crear usuario", err)
	}
	user := &model.User{Nombre: nombre, Email: email, Password: hash, Rol: rol, DistribuidorID: distribuidorID}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, u.saveError(err, "Error al crear usuario")
	}
	return u.Get(ctx, user.ID)
}

func (u *UserUsecase) Update(ctx context.Context, id string, in UserInput) (*model.User, error) {
	user, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// 1. Email, si cambia, debe quedar libre
	if email := normalizeEmail(text(in.Email)); email != "" && email != user.Email {
		exists, err := u.users.ExistsEmail(ctx, email, user.ID)
		if err != nil {
			return nil, repoError(err, "Error al actualizar usuario", nil)
		}
		if exists {
			return nil, apperror.Validation("Email ya en uso", "El email ya está registrado por otro usuario")
		}
		user.Email = email
	}

	// 2. Rol y afiliación
	if rol := text(in.Rol); rol != "" {
		distribuidorID, err := u.resolveAfiliacion(ctx, rol, text(in.DistribuidorID))
		if err != nil {
			return nil, err
		}
		user.Rol = rol
		user.DistribuidorID = distribuidorID
		user.Distribuidor = nil
	}

	// 3. Resto de campos
	if nombre := text(in.Nombre); nombre != "" {
		user.Nombre = nombre
	}
	if password := text(in.Password); password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, apperror.Internal("Error al actualizar usuario", err)
		}
		user.Password = hash
	}

	if err := u.users.Save(ctx, user); err != nil {
		return nil, u.saveError(err, "Error al actualizar usuario")
	}
	return u.Get(ctx, user.ID)
}

// Delete impide que un admin elimine su propia cuenta.
func (u *UserUsecase) Delete(ctx context.Context, caller Caller, id string) error {
	if _, err := u.Get(ctx, id); err != nil {
		return err
	}
	if id == caller.ID {
		return apperror.Validation("No puedes eliminar tu propia cuenta", "Contacta a otro administrador para eliminar tu cuenta")
	}
	return repoError(u.users.Delete(ctx, id), "Error al eliminar usuario", errUsuarioNoEncontrado)
}

// resolveAfiliacion valida el rol y devuelve el distribuidor que corresponde guardar.
func (u *UserUsecase) resolveAfiliacion(ctx context.Context, rol, distribuidorID string) (*string, error) {
	if !model.ValidRol(rol) {
		return nil, apperror.Validation("Error de validación", "El rol debe ser usuario, admin o distribuidor")
	}
	if rol != model.RolDistribuidor {
		return nil, nil
	}
	if distribuidorID == "" {
		return nil, apperror.Validation("Distribuidor requerido", "Los usuarios tipo distribuidor deben tener un distribuidor asociado")
	}
	errNoExiste := apperror.Validation("Distribuidor no encontrado", "El distribuidor especificado no existe")
	if !model.IsValidID(distribuidorID) {
		return nil, errNoExiste
	}
	if _, err := u.distribuidores.FindByID(ctx, distribuidorID); err != nil {
		return nil, repoError(err, "Error al validar distribuidor", errNoExiste)
	}
	return &distribuidorID, nil
}

func (u *UserUsecase) saveError(err error, title string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return errEmailRegistrado()
	case errors.Is(err, model.ErrDistribuidorRequerido):
		return apperror.Validation("Distribuidor requerido", "Los usuarios tipo distribuidor deben tener un distribuidor asociado")
	default:
		return repoError(err, title, nil)
	}
}
