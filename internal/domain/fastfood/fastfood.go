// Package fastfood holds the physical restaurant location entity used for
// on-site pickup selection and map display.
package fastfood

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested location does not exist.
var ErrNotFound = errors.New("fast food not found")

// FastFood is an affiliated restaurant location.
type FastFood struct {
	ID        int64
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
}

// Repository defines read operations for locations.
type Repository interface {
	List(ctx context.Context) ([]FastFood, error)
	GetByID(ctx context.Context, id int64) (*FastFood, error)
}
