package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/pronet/realtime/pkg/model"
)

type CreateConversationRequest struct {
	OtherUserID string `json:"other_user_id" validate:"required"`
}

type ConversationResponse struct {
	ID            int64     `json:"id"`
	OtherUserID   string    `json:"other_user_id"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int64     `json:"unread_count"`
}

// CreateConversation finds or creates the one-to-one thread between
// the caller and other_user_id. Idempotent: repeating the call
// returns the same conversation.
func (a *API) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		http.Error(w, "other_user_id is required", http.StatusBadRequest)
		return
	}
	if req.OtherUserID == userID {
		http.Error(w, "cannot start a conversation with yourself", http.StatusBadRequest)
		return
	}

	conv, err := a.store.FindOrCreateConversation(r.Context(), userID, req.OtherUserID)
	if err != nil {
		log.Printf("Failed to find-or-create conversation: %v", err)
		http.Error(w, "Failed to create conversation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, a.toResponse(r, userID, *conv))
}

func (a *API) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	conversations, err := a.store.ListConversations(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to list conversations for %s: %v", userID, err)
		http.Error(w, "Failed to list conversations", http.StatusInternalServerError)
		return
	}

	out := lo.Map(conversations, func(c model.Conversation, _ int) ConversationResponse {
		return a.toResponse(r, userID, c)
	})
	writeJSON(w, http.StatusOK, out)
}

// MarkConversationRead resets the caller's unread badge for the
// conversation.
func (a *API) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid conversation id", http.StatusBadRequest)
		return
	}

	conv, err := a.store.GetConversation(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to load conversation", http.StatusInternalServerError)
		return
	}
	if conv == nil || !conv.HasParticipant(userID) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	if err := a.unread.Reset(r.Context(), userID, id); err != nil {
		http.Error(w, "Failed to reset unread count", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid conversation id", http.StatusBadRequest)
		return
	}

	conv, err := a.store.GetConversation(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to load conversation", http.StatusInternalServerError)
		return
	}
	if conv == nil || !conv.HasParticipant(userID) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	messages, err := a.store.ListMessages(r.Context(), id, limit)
	if err != nil {
		log.Printf("Failed to list messages of conversation %d: %v", id, err)
		http.Error(w, "Failed to retrieve history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

func (a *API) toResponse(r *http.Request, userID string, c model.Conversation) ConversationResponse {
	unread, err := a.unread.Get(r.Context(), userID, c.ID)
	if err != nil {
		// Badge only; show zero rather than failing the listing
		log.Printf("Failed to read unread count for %s/%d: %v", userID, c.ID, err)
	}
	return ConversationResponse{
		ID:            c.ID,
		OtherUserID:   c.Peer(userID),
		CreatedAt:     c.CreatedAt,
		LastMessageAt: c.LastMessageAt,
		UnreadCount:   unread,
	}
}
