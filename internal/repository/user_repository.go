package repository

import (
	"context"

	"alcance-reducido-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsEmail(ctx context.Context, email, excludeID string) (bool, error)
	ExistsAdmin(ctx context.Context) (bool, error)
	CountByDistribuidor(ctx context.Context, distribuidorID string) (int64, error)
	Create(ctx context.Context, u *model.User) error
	Save(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := r.db.WithContext(ctx).Preload("Distribuidor").Order("created_at").Find(&users).Error
	return users, translate(err)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Distribuidor").First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) ExistsEmail(ctx context.Context, email, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, translate(err)
}

func (r *userRepository) ExistsAdmin(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("rol = ?", model.RolAdmin).Count(&count).Error
	return count > 0, translate(err)
}

func (r *userRepository) CountByDistribuidor(ctx context.Context, distribuidorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("distribuidor_id = ?", distribuidorID).Count(&count).Error
	return count, translate(err)
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error)
}

func (r *userRepository) Save(ctx context.Context, u *model.User) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(u).Error)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
