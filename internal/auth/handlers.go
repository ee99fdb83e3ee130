// ABOUTME: HTTP handlers for register, login, logout, current user and WS tokens
// ABOUTME: JSON request/response bodies matching the rest of the API

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lugha/lugha-gateway/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// Routes registers the auth endpoints on the given mux.
func (s *Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.Handle("GET /api/user", s.RequireAuth(http.HandlerFunc(s.handleCurrentUser)))
	mux.Handle("GET /api/ws-token", s.RequireAuth(http.HandlerFunc(s.handleWSToken)))
}

type registerRequest struct {
	Username          string `json:"username"`
	Password          string `json:"password"`
	Email             string `json:"email"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	PreferredLanguage string `json:"preferredLanguage"`
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	if req.PreferredLanguage == "" {
		req.PreferredLanguage = "eng"
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing password failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := &store.User{
		Username:          req.Username,
		PasswordHash:      hash,
		Email:             req.Email,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		PreferredLanguage: req.PreferredLanguage,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			writeMessage(w, http.StatusConflict, "Username already taken")
			return
		}
		s.logger.Error("creating user failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	if err := s.createSession(w, r, user.ID); err != nil {
		s.logger.Error("creating session failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		burnComparison(req.Password)
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if err := CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if err := s.createSession(w, r, user.ID); err != nil {
		s.logger.Error("creating session failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Login failed")
		return
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, user)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.destroySession(w, r)
	writeMessage(w, http.StatusOK, "Logged out")
}

func (s *Service) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, UserFromContext(r.Context()))
}

// handleWSToken exchanges a valid session for a short-lived relay token.
func (s *Service) handleWSToken(w http.ResponseWriter, r *http.Request) {
	if s.tokens == nil {
		writeMessage(w, http.StatusNotFound, "Token authentication is not enabled")
		return
	}

	user := UserFromContext(r.Context())
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("issuing token failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
