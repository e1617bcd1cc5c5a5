package main

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (a *API) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	notifications, err := a.store.ListNotifications(r.Context(), userID, limit)
	if err != nil {
		log.Printf("Failed to list notifications for %s: %v", userID, err)
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

// MarkNotificationRead flips the read flag. Notifications are never
// deleted through this API.
func (a *API) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid notification id", http.StatusBadRequest)
		return
	}

	if err := a.store.MarkRead(r.Context(), userID, id); err != nil {
		log.Printf("Failed to mark notification %d read: %v", id, err)
		http.Error(w, "Failed to mark notification read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
