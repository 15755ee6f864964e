package adapters

import (
	"context"

	"github.com/google/uuid"

	authrepo "kejani_backend/internal/auth/repository"
	"kejani_backend/internal/notifications"
)

// NotificationDirectory resolves user ids to contact details for the
// notifications module.
type NotificationDirectory struct {
	Users *authrepo.Repository
}

func (d *NotificationDirectory) Contact(ctx context.Context, userID uuid.UUID) (notifications.Contact, error) {
	user, err := d.Users.GetByID(ctx, userID)
	if err != nil {
		return notifications.Contact{}, err
	}
	return notifications.Contact{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	}, nil
}

var _ notifications.Directory = (*NotificationDirectory)(nil)
