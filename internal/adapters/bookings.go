// Package adapters bridges module boundaries: it wraps one module's concrete
// types in the narrow interfaces another module consumes, keeping the modules
// themselves free of cross-imports.
package adapters

import (
	"context"
	"errors"

	"github.com/google/uuid"

	bookingsvc "kejani_backend/internal/bookings/service"
	proprepo "kejani_backend/internal/properties/repository"
)

// BookingPropertyResolver adapts the properties repository to the bookings
// service's agent lookup.
type BookingPropertyResolver struct {
	Repo *proprepo.Repository
}

func (r BookingPropertyResolver) AgentForProperty(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error) {
	property, err := r.Repo.GetByID(ctx, propertyID)
	if errors.Is(err, proprepo.ErrNotFound) {
		return uuid.Nil, bookingsvc.ErrPropertyNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return property.AgentID, nil
}
