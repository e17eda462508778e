// Package postgres implements the repository interfaces on GORM.
package postgres

import (
	"errors"

	"github.com/medicothink/medicothink-backend/internal/repository"
	"gorm.io/gorm"
)

// wrapErr maps GORM's not-found sentinel to the repository one so that
// services never import gorm.
func wrapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}
