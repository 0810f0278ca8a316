package model

type Marca struct {
	Base
	Fabricante string `json:"fabricante" gorm:"size:191;not null;index;index:idx_marcas_fabricante_marca,priority:1"`
	Nombre     string `json:"marca" gorm:"column:marca;size:191;not null;index;index:idx_marcas_fabricante_marca,priority:2"`
	Logo       string `json:"logo" gorm:"size:500"`
}

func (Marca) TableName() string {
	return "marcas"
}
