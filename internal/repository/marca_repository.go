package repository

import (
	"context"
	"strings"

	"alcance-reducido-backend/internal/model"

	"gorm.io/gorm"
)

type MarcaFilter struct {
	Fabricante string
	Nombre     string
}

type MarcaRepository interface {
	List(ctx context.Context, f MarcaFilter) ([]model.Marca, error)
	FindByID(ctx context.Context, id string) (*model.Marca, error)
	// FindIDsByIDOrName busca por id exacto o por nombre parcial sin distinguir mayúsculas.
	FindIDsByIDOrName(ctx context.Context, q string) ([]string, error)
	Create(ctx context.Context, m *model.Marca) error
	Save(ctx context.Context, m *model.Marca) error
	Delete(ctx context.Context, id string) error
}

type marcaRepository struct {
	db *gorm.DB
}

func NewMarcaRepository(db *gorm.DB) MarcaRepository {
	return &marcaRepository{db}
}

func (r *marcaRepository) List(ctx context.Context, f MarcaFilter) ([]model.Marca, error) {
	marcas := []model.Marca{}
	q := r.db.WithContext(ctx)
	if f.Fabricante != "" {
		q = q.Where("LOWER(fabricante) LIKE ? ESCAPE '!'", containsPattern(strings.ToLower(f.Fabricante)))
	}
	if f.Nombre != "" {
		q = q.Where("LOWER(marca) LIKE ? ESCAPE '!'", containsPattern(strings.ToLower(f.Nombre)))
	}
	err := q.Order("created_at DESC").Order("id DESC").Find(&marcas).Error
	return marcas, translate(err)
}

func (r *marcaRepository) FindByID(ctx context.Context, id string) (*model.Marca, error) {
	var m model.Marca
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *marcaRepository) FindIDsByIDOrName(ctx context.Context, q string) ([]string, error) {
	ids := []string{}
	query := r.db.WithContext(ctx).Model(&model.Marca{})
	pattern := containsPattern(strings.ToLower(q))
	if model.IsValidID(q) {
		query = query.Where("id = ? OR LOWER(marca) LIKE ? ESCAPE '!'", q, pattern)
	} else {
		query = query.Where("LOWER(marca) LIKE ? ESCAPE '!'", pattern)
	}
	err := query.Pluck("id", &ids).Error
	return ids, translate(err)
}

func (r *marcaRepository) Create(ctx context.Context, m *model.Marca) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *marcaRepository) Save(ctx context.Context, m *model.Marca) error {
	return translate(r.db.WithContext(ctx).Save(m).Error)
}

func (r *marcaRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Marca{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
