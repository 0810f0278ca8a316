package usecase

import (
	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/model"
)

// Caller es la identidad ya verificada de quien hace la solicitud, leída desde la base.
type Caller struct {
	ID             string
	Nombre         string
	Email          string
	Rol            string
	DistribuidorID string
}

func CallerFromUser(u *model.User) Caller {
	c := Caller{ID: u.ID, Nombre: u.Nombre, Email: u.Email, Rol: u.Rol}
	if u.DistribuidorID != nil {
		c.DistribuidorID = *u.DistribuidorID
	}
	return c
}

func (c Caller) IsAdmin() bool {
	return c.Rol == model.RolAdmin
}

func (c Caller) IsDistribuidor() bool {
	return c.Rol == model.RolDistribuidor
}

// DistribuidorScope devuelve el filtro de distribuidor que se inyecta en la consulta.
// Un distribuidor siempre queda limitado a sí mismo; el admin puede pedir uno.
func DistribuidorScope(c Caller, requested string) string {
	if c.IsDistribuidor() {
		return c.DistribuidorID
	}
	if c.IsAdmin() {
		return requested
	}
	return ""
}

// CheckDispositivoAccess responde 403 si el dispositivo existe pero no es del distribuidor.
func CheckDispositivoAccess(c Caller, d *model.Dispositivo) error {
	if c.IsDistribuidor() && !d.TieneDistribuidor(c.DistribuidorID) {
		return apperror.Forbidden("Acceso denegado", "No tienes acceso a este dispositivo")
	}
	return nil
}

func CheckDistribuidorAccess(c Caller, distribuidorID string) error {
	if c.IsDistribuidor() && c.DistribuidorID != distribuidorID {
		return apperror.Forbidden("Acceso denegado", "No tienes acceso a este distribuidor")
	}
	return nil
}
