// ABOUTME: HTTP API for conversations, languages, translation and insights
// ABOUTME: Conversation routes are owner-scoped: non-owners get 403, missing ids 404

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/lugha/lugha-gateway/internal/auth"
	"github.com/lugha/lugha-gateway/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// registerAPIRoutes wires the authenticated user-facing API.
func (g *Gateway) registerAPIRoutes(mux *http.ServeMux) {
	requireAuth := g.auth.RequireAuth

	mux.Handle("GET /api/conversations", requireAuth(http.HandlerFunc(g.handleListConversations)))
	mux.Handle("POST /api/conversations", requireAuth(http.HandlerFunc(g.handleCreateConversation)))
	mux.Handle("GET /api/conversations/{id}", requireAuth(http.HandlerFunc(g.handleGetConversation)))
	mux.Handle("PUT /api/conversations/{id}", requireAuth(http.HandlerFunc(g.handleUpdateConversation)))
	mux.Handle("DELETE /api/conversations/{id}", requireAuth(http.HandlerFunc(g.handleDeleteConversation)))
	mux.Handle("GET /api/conversations/{id}/events", requireAuth(http.HandlerFunc(g.handleConversationEvents)))

	mux.Handle("POST /api/translate", requireAuth(http.HandlerFunc(g.handleTranslate)))
	mux.Handle("POST /api/insights", requireAuth(http.HandlerFunc(g.handleInsights)))

	// Language catalog is public.
	mux.HandleFunc("GET /api/languages", g.handleListLanguages)
}

// conversationForRequest loads the conversation in the id path segment and
// enforces owner scoping. It writes the error response itself and returns
// nil when the caller should stop.
func (g *Gateway) conversationForRequest(w http.ResponseWriter, r *http.Request) *store.Conversation {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid conversation id")
		return nil
	}

	conv, err := g.store.GetConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.sendJSONError(w, http.StatusNotFound, "Conversation not found")
		} else {
			g.logger.Error("fetching conversation failed", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "Failed to fetch conversation")
		}
		return nil
	}

	user := auth.UserFromContext(r.Context())
	if conv.UserID != user.ID {
		g.sendJSONError(w, http.StatusForbidden, "Forbidden")
		return nil
	}
	return conv
}

func (g *Gateway) handleListConversations(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	convs, err := g.store.GetConversationsByUserID(r.Context(), user.ID)
	if err != nil {
		g.logger.Error("listing conversations failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to fetch conversations")
		return
	}
	if convs == nil {
		convs = []*store.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

type conversationRequest struct {
	Title    string `json:"title"`
	Language string `json:"language"`
}

func (g *Gateway) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.Language == "" {
		g.sendJSONError(w, http.StatusBadRequest, "Title and language are required")
		return
	}
	if _, err := g.store.GetLanguageByCode(r.Context(), req.Language); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Unknown language code")
		return
	}

	user := auth.UserFromContext(r.Context())
	conv := &store.Conversation{
		UserID:   user.ID,
		Title:    req.Title,
		Language: req.Language,
	}
	if err := g.store.CreateConversation(r.Context(), conv); err != nil {
		g.logger.Error("creating conversation failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to create conversation")
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// handleGetConversation returns the conversation together with its
// messages in creation order.
func (g *Gateway) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv := g.conversationForRequest(w, r)
	if conv == nil {
		return
	}

	msgs, err := g.store.GetMessagesByConversationID(r.Context(), conv.ID)
	if err != nil {
		g.logger.Error("fetching messages failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to fetch conversation")
		return
	}
	if msgs == nil {
		msgs = []*store.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     msgs,
	})
}

func (g *Gateway) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	conv := g.conversationForRequest(w, r)
	if conv == nil {
		return
	}

	var req struct {
		Title    *string `json:"title"`
		Language *string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Language != nil {
		if _, err := g.store.GetLanguageByCode(r.Context(), *req.Language); err != nil {
			g.sendJSONError(w, http.StatusBadRequest, "Unknown language code")
			return
		}
	}

	updated, err := g.store.UpdateConversation(r.Context(), conv.ID, store.ConversationUpdate{
		Title:    req.Title,
		Language: req.Language,
	})
	if err != nil {
		g.logger.Error("updating conversation failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to update conversation")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (g *Gateway) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	conv := g.conversationForRequest(w, r)
	if conv == nil {
		return
	}

	if err := g.store.DeleteConversation(r.Context(), conv.ID); err != nil {
		g.logger.Error("deleting conversation failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to delete conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := g.store.GetLanguages(r.Context())
	if err != nil {
		g.logger.Error("listing languages failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Failed to fetch languages")
		return
	}
	writeJSON(w, http.StatusOK, langs)
}

type translateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

func (g *Gateway) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" || req.SourceLanguage == "" || req.TargetLanguage == "" {
		g.sendJSONError(w, http.StatusBadRequest, "Text, source and target languages are required")
		return
	}

	translation := g.responder.Translate(r.Context(), req.Text, req.SourceLanguage, req.TargetLanguage)
	writeJSON(w, http.StatusOK, map[string]string{"translation": translation})
}

type insightsRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (g *Gateway) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" || req.Language == "" {
		g.sendJSONError(w, http.StatusBadRequest, "Text and language are required")
		return
	}

	insights := g.responder.Insights(r.Context(), req.Text, req.Language)
	writeJSON(w, http.StatusOK, insights)
}
