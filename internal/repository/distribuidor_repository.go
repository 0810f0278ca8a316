package repository

import (
	"context"

	"alcance-reducido-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DistribuidorRepository interface {
	List(ctx context.Context) ([]model.Distribuidor, error)
	ListNombres(ctx context.Context) ([]model.Distribuidor, error)
	FindByID(ctx context.Context, id string) (*model.Distribuidor, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Distribuidor, error)
	MissingIDs(ctx context.Context, ids []string) ([]string, error)
	ExistsRepresentante(ctx context.Context, representante, excludeID string) (bool, error)
	FindByRepresentanteKey(ctx context.Context, key string) (*model.Distribuidor, error)
	FindByRepresentanteKeyContains(ctx context.Context, fragment string) (*model.Distribuidor, error)
	Create(ctx context.Context, d *model.Distribuidor) error
	Save(ctx context.Context, d *model.Distribuidor) error
	Delete(ctx context.Context, id string) error

	BackReferenceStore
}

// BackReferenceStore mantiene la lista dispositivos[] de cada distribuidor.
type BackReferenceStore interface {
	AddDispositivo(ctx context.Context, distribuidorID, dispositivoID string) error
	RemoveDispositivo(ctx context.Context, distribuidorID, dispositivoID string) error
	DispositivoIDs(ctx context.Context, distribuidorID string) ([]string, error)
}

type distribuidorRepository struct {
	db *gorm.DB
}

func NewDistribuidorRepository(db *gorm.DB) DistribuidorRepository {
	return &distribuidorRepository{db}
}

func (r *distribuidorRepository) withRefs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Dispositivos", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at, dispositivo_id")
	})
}

func (r *distribuidorRepository) List(ctx context.Context) ([]model.Distribuidor, error) {
	distribuidores := []model.Distribuidor{}
	err := r.withRefs(ctx).Order("representante").Find(&distribuidores).Error
	return distribuidores, translate(err)
}

func (r *distribuidorRepository) ListNombres(ctx context.Context) ([]model.Distribuidor, error) {
	distribuidores := []model.Distribuidor{}
	err := r.db.WithContext(ctx).Select("id", "representante", "nombre_representante").
		Order("representante").Find(&distribuidores).Error
	return distribuidores, translate(err)
}

func (r *distribuidorRepository) FindByID(ctx context.Context, id string) (*model.Distribuidor, error) {
	var d model.Distribuidor
	if err := r.withRefs(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *distribuidorRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Distribuidor, error) {
	distribuidores := []model.Distribuidor{}
	if len(ids) == 0 {
		return distribuidores, nil
	}
	err := r.withRefs(ctx).Where("id IN ?", ids).Find(&distribuidores).Error
	return distribuidores, translate(err)
}

// MissingIDs devuelve, en el orden recibido, los ids que no existen.
func (r *distribuidorRepository) MissingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).Model(&model.Distribuidor{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, translate(err)
	}
	existe := make(map[string]bool, len(found))
	for _, id := range found {
		existe[id] = true
	}
	var missing []string
	for _, id := range ids {
		if !existe[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *distribuidorRepository) ExistsRepresentante(ctx context.Context, representante, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Distribuidor{}).Where("representante = ?", representante)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, translate(err)
}

func (r *distribuidorRepository) FindByRepresentanteKey(ctx context.Context, key string) (*model.Distribuidor, error) {
	var d model.Distribuidor
	if err := r.withRefs(ctx).Where("representante_key = ?", key).Order("representante").First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *distribuidorRepository) FindByRepresentanteKeyContains(ctx context.Context, fragment string) (*model.Distribuidor, error) {
	var d model.Distribuidor
	err := r.withRefs(ctx).
		Where("representante_key LIKE ? ESCAPE '!'", containsPattern(fragment)).
		Order("representante_key").
		First(&d).Error
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *distribuidorRepository) Create(ctx context.Context, d *model.Distribuidor) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(d).Error)
}

func (r *distribuidorRepository) Save(ctx context.Context, d *model.Distribuidor) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(d).Error)
}

func (r *distribuidorRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("distribuidor_id = ?", id).Delete(&model.DistribuidorDispositivo{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Where("id = ?", id).Delete(&model.Distribuidor{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddDispositivo agrega sin duplicar, igual que un "add to set".
func (r *distribuidorRepository) AddDispositivo(ctx context.Context, distribuidorID, dispositivoID string) error {
	row := model.DistribuidorDispositivo{DistribuidorID: distribuidorID, DispositivoID: dispositivoID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	return translate(err)
}

func (r *distribuidorRepository) RemoveDispositivo(ctx context.Context, distribuidorID, dispositivoID string) error {
	err := r.db.WithContext(ctx).
		Where("distribuidor_id = ? AND dispositivo_id = ?", distribuidorID, dispositivoID).
		Delete(&model.DistribuidorDispositivo{}).Error
	return translate(err)
}

func (r *distribuidorRepository) DispositivoIDs(ctx context.Context, distribuidorID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.DistribuidorDispositivo{}).
		Where("distribuidor_id = ?", distribuidorID).
		Order("dispositivo_id").
		Pluck("dispositivo_id", &ids).Error
	return ids, translate(err)
}
