package usecase

import (
	"errors"

	"alcance-reducido-backend/internal/apperror"
	"alcance-reducido-backend/internal/model"
	"alcance-reducido-backend/internal/repository"
)

// repoError traduce los sentinelas del repositorio; lo demás queda como error interno.
func repoError(err error, title string, notFound *apperror.Error) error {
	var appErr *apperror.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case notFound != nil && errors.Is(err, repository.ErrNotFound):
		return notFound
	default:
		return apperror.Internal(title, err)
	}
}

func requireID(id string) error {
	if !model.IsValidID(id) {
		return apperror.InvalidID()
	}
	return nil
}
