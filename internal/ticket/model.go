package ticket

import "time"

// TTL is how long a ticket stays valid after creation or refresh.
const TTL = 7 * 24 * time.Hour

// RefreshInterval is the minimum time between expiry refreshes. Verifying a
// ticket more often than this does not touch the store, so hot sessions
// don't write on every request.
const RefreshInterval = time.Minute

// Ticket is a server-side session record backing cookie authentication.
type Ticket struct {
	ID         string
	UserUserid string
	Expires    time.Time
	Updated    time.Time
	CreatedAt  time.Time
}

// Expired reports whether the ticket is past its expiry at the given time.
func (t *Ticket) Expired(now time.Time) bool {
	return !t.Expires.After(now)
}
