package ticket

import (
	"context"
	"errors"
	"time"
)

// ErrTicketNotFound is returned when a ticket record is not found.
var ErrTicketNotFound = errors.New("ticket not found")

// Repository provides operations on the authtickets table.
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id string) (*Ticket, error)
	Refresh(ctx context.Context, id string, expires, updated time.Time) error
	Delete(ctx context.Context, id string) error
}
