package repository

import (
	"context"

	"alcance-reducido-backend/internal/model"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalDispositivos   int64            `json:"totalDispositivos"`
	TotalMarcas         int64            `json:"totalMarcas"`
	TotalDistribuidores int64            `json:"totalDistribuidores"`
	TotalUsuarios       int64            `json:"totalUsuarios"`
	PorResolucion       map[string]int64 `json:"porResolucion"`
	UsuariosPorRol      map[string]int64 `json:"usuariosPorRol"`
}

type DashboardRepository interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db}
}

func (r *dashboardRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	stats := &DashboardStats{
		PorResolucion:  map[string]int64{model.ResolucionVersion2017: 0, model.ResolucionVersion2025: 0},
		UsuariosPorRol: map[string]int64{model.RolAdmin: 0, model.RolDistribuidor: 0, model.RolUsuario: 0},
	}

	// 1. Totales simples
	counts := []struct {
		model any
		dest  *int64
	}{
		{&model.Dispositivo{}, &stats.TotalDispositivos},
		{&model.Marca{}, &stats.TotalMarcas},
		{&model.Distribuidor{}, &stats.TotalDistribuidores},
		{&model.User{}, &stats.TotalUsuarios},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, translate(err)
		}
	}

	// 2. Dispositivos por versión de resolución
	var porResolucion []struct {
		ResolutionVersion string
		Count             int64
	}
	if err := db.Model(&model.Dispositivo{}).
		Select("resolution_version, count(*) as count").
		Group("resolution_version").
		Scan(&porResolucion).Error; err != nil {
		return nil, translate(err)
	}
	for _, row := range porResolucion {
		stats.PorResolucion[row.ResolutionVersion] = row.Count
	}

	// 3. Usuarios por rol
	var porRol []struct {
		Rol   string
		Count int64
	}
	if err := db.Model(&model.User{}).Select("rol, count(*) as count").Group("rol").Scan(&porRol).Error; err != nil {
		return nil, translate(err)
	}
	for _, row := range porRol {
		stats.UsuariosPorRol[row.Rol] = row.Count
	}

	return stats, nil
}
