package model

import (
	"errors"

	"gorm.io/gorm"
)

const (
	RolUsuario      = "usuario"
	RolAdmin        = "admin"
	RolDistribuidor = "distribuidor"
)

var ErrDistribuidorRequerido = errors.New("los usuarios tipo distribuidor deben tener un distribuidor asociado")

type User struct {
	Base
	Nombre         string        `json:"nombre" gorm:"size:191;not null"`
	Email          string        `json:"email" gorm:"size:191;not null;uniqueIndex"`
	Password       string        `json:"-" gorm:"size:255;not null"`
	Rol            string        `json:"rol" gorm:"size:20;not null;default:usuario"`
	DistribuidorID *string       `json:"distribuidorId" gorm:"type:char(24);index"`
	Distribuidor   *Distribuidor `json:"distribuidor,omitempty" gorm:"foreignKey:DistribuidorID"`
}

func (User) TableName() string {
	return "users"
}

func ValidRol(rol string) bool {
	switch rol {
	case RolUsuario, RolAdmin, RolDistribuidor:
		return true
	}
	return false
}

// Normalize aplica la regla del distribuidor asociado antes de cada persistencia.
func (u *User) Normalize() error {
	if u.Rol == "" {
		u.Rol = RolUsuario
	}
	if u.Rol == RolDistribuidor {
		if u.DistribuidorID == nil || *u.DistribuidorID == "" {
			return ErrDistribuidorRequerido
		}
		return nil
	}
	u.DistribuidorID = nil
	u.Distribuidor = nil
	return nil
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	return u.Normalize()
}

func (u *User) IsAdmin() bool {
	return u.Rol == RolAdmin
}
