package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/glosshub/gloss/internal/user"
)

// ErrInvalidLogin is returned when the credentials do not match an active,
// non-deleted user.
var ErrInvalidLogin = errors.New("invalid username or password")

// ErrNotLoaded is returned by Session.User before Load has run. A session
// that was loaded but matched no valid ticket is anonymous (nil user, no
// error), which is a different condition.
var ErrNotLoaded = errors.New("session ticket not loaded")

// Service manages login sessions backed by server-side tickets.
type Service struct {
	repo  Repository
	users user.Directory
	now   func() time.Time
}

// NewService creates a ticket Service.
func NewService(repo Repository, users user.Directory) *Service {
	return &Service{
		repo:  repo,
		users: users,
		now:   time.Now,
	}
}

// Login verifies a username/password pair within an authority and creates a
// fresh ticket for the user. Deactivated and deleted users cannot log in.
func (s *Service) Login(ctx context.Context, username, authority, password string) (*Ticket, error) {
	u, err := s.users.GetByUsername(ctx, username, authority)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidLogin
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if u.Deleted || !u.Activated || u.PasswordHash == nil {
		return nil, ErrInvalidLogin
	}
	if bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidLogin
	}

	now := s.now()
	t := &Ticket{
		ID:         uuid.New().String(),
		UserUserid: u.Userid,
		Expires:    now.Add(TTL),
		Updated:    now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating ticket: %w", err)
	}

	return t, nil
}

// Logout deletes the ticket. Unknown tickets are a silent no-op.
func (s *Service) Logout(ctx context.Context, ticketID string) error {
	return s.repo.Delete(ctx, ticketID)
}

// NewSession returns an unloaded session handle for one request.
func (s *Service) NewSession() *Session {
	return &Session{svc: s}
}

// Session is the per-request view of a ticket. Load must run before User;
// asking for the user of an unloaded session is a programming error and is
// reported as ErrNotLoaded, distinct from "loaded but anonymous".
type Session struct {
	svc    *Service
	loaded bool
	user   *user.User
}

// Load resolves a ticket id to its user. A missing, expired, or dangling
// ticket leaves the session anonymous; only store failures are errors. A
// valid ticket's expiry is pushed out to now+TTL, but only when more than
// RefreshInterval has passed since the last refresh.
func (s *Session) Load(ctx context.Context, ticketID string) error {
	s.loaded = true
	s.user = nil

	if ticketID == "" {
		return nil
	}

	now := s.svc.now()

	t, err := s.svc.repo.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			return nil
		}
		return fmt.Errorf("loading ticket: %w", err)
	}
	if t.Expired(now) {
		return nil
	}

	u, err := s.svc.users.GetByUserid(ctx, t.UserUserid)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("resolving ticket user: %w", err)
	}
	if u.Deleted {
		return nil
	}

	if now.Sub(t.Updated) > RefreshInterval {
		if err := s.svc.repo.Refresh(ctx, t.ID, now.Add(TTL), now); err != nil {
			return fmt.Errorf("refreshing ticket: %w", err)
		}
	}

	s.user = u
	return nil
}

// User returns the user resolved by Load, nil for an anonymous session, or
// ErrNotLoaded if Load has not run.
func (s *Session) User() (*user.User, error) {
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return s.user, nil
}
