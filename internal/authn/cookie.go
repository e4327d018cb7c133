package authn

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/glosshub/gloss/internal/ticket"
)

// CookieName is the browser session cookie carrying the signed ticket id.
const CookieName = "auth"

// TicketCookie signs and reads the session cookie. The cookie value is an
// HS256 JWT whose subject is the ticket id; the ticket record itself stays
// authoritative for expiry.
type TicketCookie struct {
	secret []byte
	secure bool
}

// NewTicketCookie creates a TicketCookie signing with the given secret.
func NewTicketCookie(secret []byte, secure bool) *TicketCookie {
	return &TicketCookie{secret: secret, secure: secure}
}

// Issue builds the session cookie for a ticket.
func (c *TicketCookie) Issue(ticketID string, expires time.Time) (*http.Cookie, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": ticketID,
	}).SignedString(c.secret)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Expire builds a cookie that clears the session cookie.
func (c *TicketCookie) Expire() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Read extracts and verifies the ticket id from the request cookie. A
// missing or tampered cookie yields "".
func (c *TicketCookie) Read(r *http.Request) string {
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}

	claims := jwt.MapClaims{}
	_, err = jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})).
		ParseWithClaims(ck.Value, claims, func(*jwt.Token) (any, error) {
			return c.secret, nil
		})
	if err != nil {
		return ""
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// CookieTicketPolicy resolves identity from the signed session cookie backed
// by a server-side ticket.
type CookieTicketPolicy struct {
	tickets *ticket.Service
	cookie  *TicketCookie
}

// NewCookieTicketPolicy creates a CookieTicketPolicy.
func NewCookieTicketPolicy(tickets *ticket.Service, cookie *TicketCookie) *CookieTicketPolicy {
	return &CookieTicketPolicy{tickets: tickets, cookie: cookie}
}

// Identity resolves the session cookie to its user. Missing, invalid, and
// expired tickets yield an anonymous request, not an error.
func (p *CookieTicketPolicy) Identity(r *http.Request) (*Identity, error) {
	ticketID := p.cookie.Read(r)
	if ticketID == "" {
		return nil, nil
	}

	sess := p.tickets.NewSession()
	if err := sess.Load(r.Context(), ticketID); err != nil {
		return nil, err
	}

	u, err := sess.User()
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return &Identity{User: u}, nil
}

// Principals returns the principals of the resolved identity.
func (p *CookieTicketPolicy) Principals(r *http.Request) ([]Principal, error) {
	id, err := p.Identity(r)
	if err != nil {
		return nil, err
	}
	return PrincipalsFor(id), nil
}

// TicketID exposes the verified ticket id of the request's cookie, used by
// logout to delete the right ticket.
func (p *CookieTicketPolicy) TicketID(r *http.Request) string {
	return p.cookie.Read(r)
}
