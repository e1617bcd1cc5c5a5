package main

import (
	"log"
	"net/http"
)

// OnlineUsers serves the mirrored online set. The gateway's registry
// is authoritative; this snapshot exists so page loads can paint
// status badges without a websocket round trip.
func (a *API) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.mirror.Snapshot(r.Context())
	if err != nil {
		log.Printf("Failed to fetch online set: %v", err)
		http.Error(w, "Failed to fetch presence", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, users)
}
