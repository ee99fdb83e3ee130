// ABOUTME: Session lifecycle and auth middleware for the HTTP API
// ABOUTME: Store-backed cookie sessions; RequireAuth and RequireAdmin wrap handlers

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lugha/lugha-gateway/internal/store"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "lugha_session"

// DefaultSessionDuration is how long sessions last unless configured.
const DefaultSessionDuration = 7 * 24 * time.Hour

// Service handles sessions and request authentication.
type Service struct {
	store      store.Store
	tokens     *TokenIssuer
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewService creates an auth service. A zero sessionTTL means
// DefaultSessionDuration.
func NewService(s store.Store, tokens *TokenIssuer, sessionTTL time.Duration) *Service {
	if sessionTTL == 0 {
		sessionTTL = DefaultSessionDuration
	}
	return &Service{
		store:      s,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		logger:     slog.Default().With("component", "auth"),
	}
}

// generateSecureToken returns a hex-encoded random token of n bytes.
func generateSecureToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// createSession creates a session for the user and sets the cookie.
func (s *Service) createSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	sessionID, err := generateSecureToken(32)
	if err != nil {
		return err
	}

	session := &store.Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(r.Context(), session); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})
	return nil
}

// destroySession removes the request's session and clears the cookie.
func (s *Service) destroySession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := s.store.DeleteSession(r.Context(), cookie.Value); err != nil {
			s.logger.Warn("deleting session failed", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// UserFromRequest resolves the session cookie to its user. Returns
// store.ErrNotFound when the request carries no valid session.
func (s *Service) UserFromRequest(r *http.Request) (*store.User, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, store.ErrNotFound
	}

	session, err := s.store.GetSession(r.Context(), cookie.Value)
	if err != nil {
		return nil, err
	}

	return s.store.GetUser(r.Context(), session.UserID)
}

// RequireAuth rejects unauthenticated requests with 401 and otherwise
// attaches the user to the request context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.UserFromRequest(r)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				s.logger.Error("session lookup failed", "error", err)
			}
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAdmin behaves like RequireAuth but additionally rejects
// non-admin users with 403.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return s.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil || user.Role != store.RoleAdmin {
			writeMessage(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	}))
}
