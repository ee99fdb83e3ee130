// ABOUTME: Admin endpoints for API keys, language management and user promotion
// ABOUTME: All routes require an admin session; POST api-keys upserts by provider

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/lugha/lugha-gateway/internal/store"
)

// registerAdminRoutes wires the admin API.
func (g *Gateway) registerAdminRoutes(mux *http.ServeMux) {
	requireAdmin := g.auth.RequireAdmin

	mux.Handle("GET /api/admin/api-keys", requireAdmin(http.HandlerFunc(g.handleListAPIKeys)))
	mux.Handle("POST /api/admin/api-keys", requireAdmin(http.HandlerFunc(g.handleUpsertAPIKey)))
	mux.Handle("DELETE /api/admin/api-keys/{id}", requireAdmin(http.HandlerFunc(g.handleDeleteAPIKey)))

	mux.Handle("GET /api/admin/languages", requireAdmin(http.HandlerFunc(g.handleListLanguages)))
	mux.Handle("POST /api/admin/languages", requireAdmin(http.HandlerFunc(g.handleCreateLanguage)))
	mux.Handle("PUT /api/admin/languages/{id}", requireAdmin(http.HandlerFunc(g.handleUpdateLanguage)))

	mux.Handle("POST /api/admin/promote-user", requireAdmin(http.HandlerFunc(g.handlePromoteUser)))
}

func (g *Gateway) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := g.store.GetAPIKeys(r.Context())
	if err != nil {
		g.logger.Error("listing api keys failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to fetch API keys")
		return
	}
	if keys == nil {
		keys = []*store.ApiKey{}
	}
	writeJSON(w, http.StatusOK, keys)
}

type apiKeyRequest struct {
	Provider string `json:"provider"`
	KeyValue string `json:"keyValue"`
	IsActive *bool  `json:"isActive"`
}

// handleUpsertAPIKey creates the provider's key, or updates it when the
// provider already has one.
func (g *Gateway) handleUpsertAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Provider == "" || req.KeyValue == "" {
		g.sendJSONError(w, http.StatusBadRequest, "Provider and key value are required")
		return
	}

	existing, err := g.store.GetAPIKeyByProvider(r.Context(), req.Provider)
	if err == nil {
		update := store.ApiKeyUpdate{KeyValue: &req.KeyValue, IsActive: req.IsActive}
		updated, err := g.store.UpdateAPIKey(r.Context(), existing.ID, update)
		if err != nil {
			g.logger.Error("updating api key failed", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "Failed to create/update API key")
			return
		}
		writeJSON(w, http.StatusOK, updated)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		g.logger.Error("looking up api key failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to create/update API key")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	key := &store.ApiKey{Provider: req.Provider, KeyValue: req.KeyValue, IsActive: active}
	if err := g.store.CreateAPIKey(r.Context(), key); err != nil {
		g.logger.Error("creating api key failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to create/update API key")
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

func (g *Gateway) handleDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid API key id")
		return
	}

	if err := g.store.DeleteAPIKey(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.sendJSONError(w, http.StatusNotFound, "API key not found")
			return
		}
		g.logger.Error("deleting api key failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type languageRequest struct {
	Name     string  `json:"name"`
	Code     string  `json:"code"`
	IsActive *bool   `json:"isActive"`
	Region   *string `json:"region"`
}

func (g *Gateway) handleCreateLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Code == "" {
		g.sendJSONError(w, http.StatusBadRequest, "Name and code are required")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	lang := &store.Language{Name: req.Name, Code: req.Code, IsActive: active}
	if req.Region != nil {
		lang.Region = *req.Region
	}
	if err := g.store.CreateLanguage(r.Context(), lang); err != nil {
		if errors.Is(err, store.ErrDuplicateLanguage) {
			g.sendJSONError(w, http.StatusConflict, "Language name or code already exists")
			return
		}
		g.logger.Error("creating language failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to create language")
		return
	}
	writeJSON(w, http.StatusCreated, lang)
}

func (g *Gateway) handleUpdateLanguage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid language id")
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Code     *string `json:"code"`
		IsActive *bool   `json:"isActive"`
		Region   *string `json:"region"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := g.store.UpdateLanguage(r.Context(), id, store.LanguageUpdate{
		Name:     req.Name,
		Code:     req.Code,
		IsActive: req.IsActive,
		Region:   req.Region,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.sendJSONError(w, http.StatusNotFound, "Language not found")
			return
		}
		if errors.Is(err, store.ErrDuplicateLanguage) {
			g.sendJSONError(w, http.StatusConflict, "Language name or code already exists")
			return
		}
		g.logger.Error("updating language failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to update language")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type promoteUserRequest struct {
	UserID int64 `json:"userId"`
}

func (g *Gateway) handlePromoteUser(w http.ResponseWriter, r *http.Request) {
	var req promoteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == 0 {
		g.sendJSONError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	if _, err := g.store.GetUser(r.Context(), req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.sendJSONError(w, http.StatusNotFound, "User not found")
			return
		}
		g.logger.Error("fetching user failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to promote user")
		return
	}

	role := store.RoleAdmin
	updated, err := g.store.UpdateUser(r.Context(), req.UserID, store.UserUpdate{Role: &role})
	if err != nil {
		g.logger.Error("promoting user failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to promote user")
		return
	}

	g.logger.Info("user promoted to admin", "user_id", updated.ID)
	writeJSON(w, http.StatusOK, updated)
}
