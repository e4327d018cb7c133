package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/glosshub/gloss/internal/api/middleware"
	"github.com/glosshub/gloss/internal/api/response"
	"github.com/glosshub/gloss/internal/authn"
	"github.com/glosshub/gloss/internal/ticket"
)

// SessionHandler handles POST /login and POST /logout.
type SessionHandler struct {
	tickets   *ticket.Service
	cookie    *authn.TicketCookie
	policy    *authn.CookieTicketPolicy
	authority string
}

// NewSessionHandler creates a new SessionHandler. The authority is the
// server's own, used when the login form does not name one.
func NewSessionHandler(tickets *ticket.Service, cookie *authn.TicketCookie, policy *authn.CookieTicketPolicy, authority string) *SessionHandler {
	return &SessionHandler{
		tickets:   tickets,
		cookie:    cookie,
		policy:    policy,
		authority: authority,
	}
}

type loginData struct {
	Userid string `json:"userid"`
}

// Login verifies the posted credentials, creates a ticket, and sets the
// signed session cookie.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if err := r.ParseForm(); err != nil {
		response.Err(w, http.StatusBadRequest, "BAD_REQUEST", "Request body could not be parsed", requestID)
		return
	}

	authority := r.PostFormValue("authority")
	if authority == "" {
		authority = h.authority
	}

	t, err := h.tickets.Login(r.Context(),
		r.PostFormValue("username"), authority, r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, ticket.ErrInvalidLogin) {
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password", requestID)
			return
		}
		slog.Error("login failed", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", requestID)
		return
	}

	ck, err := h.cookie.Issue(t.ID, t.Expires)
	if err != nil {
		slog.Error("failed to issue session cookie", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", requestID)
		return
	}

	http.SetCookie(w, ck)
	response.Success(w, http.StatusOK, loginData{Userid: t.UserUserid}, requestID)
}

// Logout deletes the session ticket and expires the cookie. Logging out
// without a session is a no-op.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if ticketID := h.policy.TicketID(r); ticketID != "" {
		if err := h.tickets.Logout(r.Context(), ticketID); err != nil {
			slog.Error("logout failed", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Logout failed", requestID)
			return
		}
	}

	http.SetCookie(w, h.cookie.Expire())
	response.Success(w, http.StatusOK, nil, requestID)
}
