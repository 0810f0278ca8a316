package repository

import (
	"context"
	"time"

	"alcance-reducido-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DispositivoFilter struct {
	// nil significa sin filtro; una lista vacía no coincide con nada.
	MarcaIDs       []string
	Tipo           string
	DistribuidorID string
}

// DispositivoChanges describe una actualización parcial.
type DispositivoChanges struct {
	Fields                   map[string]any
	Distribuidores           []string
	ReemplazarDistribuidores bool
}

type DispositivoRepository interface {
	Mode() model.OwnershipMode
	List(ctx context.Context, f DispositivoFilter) ([]model.Dispositivo, error)
	FindByID(ctx context.Context, id string) (*model.Dispositivo, error)
	ExistsModelo(ctx context.Context, modelo, excludeID string) (bool, error)
	CountByMarca(ctx context.Context, marcaID string) (int64, error)
	Create(ctx context.Context, d *model.Dispositivo) error
	Update(ctx context.Context, id string, changes DispositivoChanges) error
	Delete(ctx context.Context, id string) error
	DetachDistribuidor(ctx context.Context, distribuidorID string) ([]string, error)
}

type dispositivoRepository struct {
	db   *gorm.DB
	mode model.OwnershipMode
}

func NewDispositivoRepository(db *gorm.DB, mode model.OwnershipMode) DispositivoRepository {
	return &dispositivoRepository{db: db, mode: mode}
}

func (r *dispositivoRepository) Mode() model.OwnershipMode {
	return r.mode
}

func (r *dispositivoRepository) List(ctx context.Context, f DispositivoFilter) ([]model.Dispositivo, error) {
	dispositivos := []model.Dispositivo{}
	if f.MarcaIDs != nil && len(f.MarcaIDs) == 0 {
		return dispositivos, nil
	}

	db := r.db.WithContext(ctx)
	q := r.withRefs(db)
	if f.MarcaIDs != nil {
		q = q.Where("marca_id IN ?", f.MarcaIDs)
	}
	if f.Tipo != "" {
		q = q.Where("tipo = ?", f.Tipo)
	}
	if f.DistribuidorID != "" {
		if r.mode == model.OwnershipSingle {
			q = q.Where("distribuidor_id = ?", f.DistribuidorID)
		} else {
			sub := db.Model(&model.DispositivoDistribuidor{}).Select("dispositivo_id").Where("distribuidor_id = ?", f.DistribuidorID)
			q = q.Where("id IN (?)", sub)
		}
	}

	if err := q.Order("modelo").Find(&dispositivos).Error; err != nil {
		return dispositivos, translate(err)
	}
	for i := range dispositivos {
		dispositivos[i].ResolveDistribuidores(r.mode)
	}
	return dispositivos, nil
}

// withRefs precarga la marca y los vínculos; ResolveDistribuidores decide cuáles cuentan.
func (r *dispositivoRepository) withRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Marca").Preload("Vinculos")
}

func (r *dispositivoRepository) FindByID(ctx context.Context, id string) (*model.Dispositivo, error) {
	var d model.Dispositivo
	err := r.withRefs(r.db.WithContext(ctx)).First(&d, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	d.ResolveDistribuidores(r.mode)
	return &d, nil
}

func (r *dispositivoRepository) ExistsModelo(ctx context.Context, modelo, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Dispositivo{}).Where("modelo = ?", modelo)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, translate(err)
}

func (r *dispositivoRepository) CountByMarca(ctx context.Context, marcaID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Dispositivo{}).Where("marca_id = ?", marcaID).Count(&count).Error
	return count, translate(err)
}

func (r *dispositivoRepository) Create(ctx context.Context, d *model.Dispositivo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Solo se escribe la generación activa.
		if r.mode == model.OwnershipSingle {
			d.DistribuidorID = first(d.DistribuidorIDs)
		} else {
			d.DistribuidorID = nil
		}
		if err := tx.Omit(clause.Associations).Create(d).Error; err != nil {
			return translate(err)
		}
		if r.mode == model.OwnershipMulti {
			return translate(insertVinculos(tx, d.ID, d.DistribuidorIDs))
		}
		return nil
	})
}

func (r *dispositivoRepository) Update(ctx context.Context, id string, changes DispositivoChanges) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(changes.Fields) > 0 {
			fields := make(map[string]any, len(changes.Fields)+1)
			for k, v := range changes.Fields {
				fields[k] = v
			}
			fields["updated_at"] = time.Now()
			if err := tx.Model(&model.Dispositivo{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return translate(err)
			}
		}
		if !changes.ReemplazarDistribuidores {
			return nil
		}

		// Al reemplazar se vacía la generación inactiva para que no queden vínculos huérfanos.
		column := first(changes.Distribuidores)
		if r.mode == model.OwnershipMulti {
			column = nil
		}
		err := tx.Model(&model.Dispositivo{}).Where("id = ?", id).
			Updates(map[string]any{"distribuidor_id": column, "updated_at": time.Now()}).Error
		if err != nil {
			return translate(err)
		}
		if err := tx.Where("dispositivo_id = ?", id).Delete(&model.DispositivoDistribuidor{}).Error; err != nil {
			return translate(err)
		}
		if r.mode == model.OwnershipSingle {
			return nil
		}
		return translate(insertVinculos(tx, id, changes.Distribuidores))
	})
}

func (r *dispositivoRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dispositivo_id = ?", id).Delete(&model.DispositivoDistribuidor{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Where("id = ?", id).Delete(&model.Dispositivo{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DetachDistribuidor quita al distribuidor de las referencias de todos los dispositivos.
func (r *dispositivoRepository) DetachDistribuidor(ctx context.Context, distribuidorID string) ([]string, error) {
	var afectados []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&model.DispositivoDistribuidor{}).Select("dispositivo_id").Where("distribuidor_id = ?", distribuidorID)
		if err := tx.Model(&model.Dispositivo{}).
			Where("(distribuidor_id = ? OR id IN (?))", distribuidorID, sub).
			Pluck("id", &afectados).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Dispositivo{}).Where("distribuidor_id = ?", distribuidorID).
			Update("distribuidor_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("distribuidor_id = ?", distribuidorID).Delete(&model.DispositivoDistribuidor{}).Error
	})
	return afectados, translate(err)
}

func insertVinculos(tx *gorm.DB, dispositivoID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]model.DispositivoDistribuidor, 0, len(ids))
	for i, id := range ids {
		rows = append(rows, model.DispositivoDistribuidor{DispositivoID: dispositivoID, DistribuidorID: id, Posicion: i})
	}
	return tx.Create(&rows).Error
}

func first(ids []string) *string {
	if len(ids) == 0 {
		return nil
	}
	id := ids[0]
	return &id
}
