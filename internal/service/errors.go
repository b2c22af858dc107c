package service

import (
	"errors"

	"github.com/alexanderramin/sillage/internal/repository"
)

var (
	// ErrNotFound is the repository sentinel, re-exported for callers that
	// only import service.
	ErrNotFound = repository.ErrNotFound

	ErrUnauthorized       = errors.New("unauthorized")
	ErrMaterialInUse      = errors.New("material is used by a blend; archive it instead")
	ErrAccordInUse        = errors.New("accord is used by a formula; archive it instead")
	ErrAccordLineFixed    = errors.New("accord lines take the accord's concentration")
	ErrDilutionNotOffered = errors.New("dilution is not one of the material's options")
	ErrFieldNotRemovable  = errors.New("field cannot be removed")
	ErrArchived           = errors.New("archived items cannot be added to a blend")
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
