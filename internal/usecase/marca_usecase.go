package usecase

import (
	"context"
	"strconv"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/repository"
)

type MarcaInput struct {
	Fabricante model.Optional[model.FlexString] `json:"fabricante"`
	Marca      model.Optional[model.FlexString] `json:"marca"`
	Logo       model.Optional[model.FlexString] `json:"logo"`
}

var errMarcaNoExiste = apperror.NotFound("Marca no encontrada", "")

type MarcaUsecase struct {
	marcas       repository.MarcaRepository
	dispositivos repository.DispositivoRepository
}

func NewMarcaUsecase(marcas repository.MarcaRepository, dispositivos repository.DispositivoRepository) *MarcaUsecase {
	return &MarcaUsecase{marcas: marcas, dispositivos: dispositivos}
}

func (u *MarcaUsecase) List(ctx context.Context, f repository.MarcaFilter) ([]model.Marca, error) {
	marcas, err := u.marcas.List(ctx, f)
	return marcas, repoError(err, "Error al obtener marcas", nil)
}

func (u *MarcaUsecase) Get(ctx context.Context, id string) (*model.Marca, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	m, err := u.marcas.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Error al obtener marca", errMarcaNoExiste)
	}
	return m, nil
}

func (u *MarcaUsecase) Create(ctx context.Context, in MarcaInput) (*model.Marca, error) {
	m := &model.Marca{
		Fabricante: text(in.Fabricante),
		Nombre:     text(in.Marca),
		Logo:       text(in.Logo),
	}
	if m.Fabricante == "" || m.Nombre == "" {
		return nil, apperror.Validation("Datos incompletos", "Se requieren fabricante y marca")
	}
	if err := u.marcas.Create(ctx, m); err != nil {
		return nil, repoError(err, "Error al crear marca", nil)
	}
	return m, nil
}

func (u *MarcaUsecase) Update(ctx context.Context, id string, in MarcaInput) (*model.Marca, error) {
	m, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v := text(in.Fabricante); v != "" {
		m.Fabricante = v
	}
	if v := text(in.Marca); v != "" {
		m.Nombre = v
	}
	if in.Logo.Set {
		m.Logo = text(in.Logo)
	}
	if err := u.marcas.Save(ctx, m); err != nil {
		return nil, repoError(err, "Error al actualizar marca", nil)
	}
	return m, nil
}

// Delete se niega mientras algún dispositivo use la marca.
func (u *MarcaUsecase) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	enUso, err := u.dispositivos.CountByMarca(ctx, id)
	if err != nil {
		return repoError(err, "Error al eliminar marca", nil)
	}
	if enUso > 0 {
		return apperror.Validation("Marca en uso",
			"No se puede eliminar la marca porque tiene "+strconv.FormatInt(enUso, 10)+" dispositivo(s) asociado(s)")
	}
	return repoError(u.marcas.Delete(ctx, id), "Error al eliminar marca", errMarcaNoExiste)
}
