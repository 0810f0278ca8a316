package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// Base reemplaza gorm.Model: id hexadecimal de 24 caracteres y sin borrado lógico.
type Base struct {
	ID        string    `json:"_id" gorm:"type:char(24);primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	return nil
}

func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID indica si s tiene el formato de un id de registro.
func IsValidID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}
