package usecase

import (
	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/model"
)

// DistribuidorRefs son los campos de referencia tal como llegan en el cuerpo.
type DistribuidorRefs struct {
	Distribuidor   model.Optional[model.FlexString] `json:"distribuidor"`
	Distribuidores model.Optional[model.StringList] `json:"distribuidores"`
}

// OwnershipStrategy traduce las referencias recibidas al conjunto que se guarda.
type OwnershipStrategy interface {
	Mode() model.OwnershipMode
	// ForCreate devuelve el conjunto inicial, posiblemente vacío.
	ForCreate(in DistribuidorRefs) ([]string, error)
	// ForUpdate indica si hay que reemplazar el conjunto y con qué.
	ForUpdate(in DistribuidorRefs) (ids []string, replace bool, err error)
}

func NewOwnershipStrategy(mode model.OwnershipMode) OwnershipStrategy {
	if mode == model.OwnershipSingle {
		return singleOwner{}
	}
	return multiOwner{}
}

type multiOwner struct{}

func (multiOwner) Mode() model.OwnershipMode { return model.OwnershipMulti }

func (multiOwner) refs(in DistribuidorRefs) ([]string, bool) {
	if in.Distribuidores.Set {
		if in.Distribuidores.Null {
			return nil, true
		}
		return dedupe(in.Distribuidores.Value), true
	}
	if in.Distribuidor.Set {
		if id := in.Distribuidor.Value.Trimmed(); !in.Distribuidor.Null && id != "" {
			return []string{id}, true
		}
		return nil, true
	}
	return nil, false
}

func (m multiOwner) ForCreate(in DistribuidorRefs) ([]string, error) {
	ids, _ := m.refs(in)
	if len(ids) == 0 {
		return nil, errDistribuidoresRequeridos()
	}
	return ids, nil
}

func (m multiOwner) ForUpdate(in DistribuidorRefs) ([]string, bool, error) {
	ids, present := m.refs(in)
	if !present {
		return nil, false, nil
	}
	if len(ids) == 0 {
		return nil, false, errDistribuidoresRequeridos()
	}
	return ids, true, nil
}

type singleOwner struct{}

func (singleOwner) Mode() model.OwnershipMode { return model.OwnershipSingle }

func (singleOwner) refs(in DistribuidorRefs) ([]string, bool, error) {
	if in.Distribuidor.Set {
		if id := in.Distribuidor.Value.Trimmed(); !in.Distribuidor.Null && id != "" {
			return []string{id}, true, nil
		}
		return nil, true, nil
	}
	if in.Distribuidores.Set {
		ids := dedupe(in.Distribuidores.Value)
		if len(ids) > 1 {
			return nil, false, apperror.Validation("Distribuidor inválido", "Un dispositivo solo puede tener un distribuidor")
		}
		return ids, true, nil
	}
	return nil, false, nil
}

func (s singleOwner) ForCreate(in DistribuidorRefs) ([]string, error) {
	ids, _, err := s.refs(in)
	return ids, err
}

func (s singleOwner) ForUpdate(in DistribuidorRefs) ([]string, bool, error) {
	return s.refs(in)
}

func errDistribuidoresRequeridos() error {
	return apperror.Validation("Datos incompletos", "Se requiere al menos un distribuidor")
}

// dedupe quita vacíos y repetidos conservando el orden.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		id := trimSpace(raw)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
