package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pronet/realtime/pkg/model"
)

type DomainEventRequest struct {
	Type       model.NotificationType `json:"type" validate:"required"`
	ActorID    string                 `json:"actor_id" validate:"required"`
	ActorName  string                 `json:"actor_name" validate:"required"`
	Recipients []string               `json:"recipients" validate:"required,min=1"`
	Subject    string                 `json:"subject"`
	Link       string                 `json:"link"`
}

// IngestDomainEvent accepts a domain event from the platform's CRUD
// backend (a like, a comment, a connection request, a newsletter
// edition) and produces it to Kafka for the gateway's notification
// fan-out. The write to Kafka is the whole job; the caller never
// waits on notification persistence or pushes.
func (a *API) IngestDomainEvent(w http.ResponseWriter, r *http.Request) {
	var req DomainEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		http.Error(w, "type, actor and at least one recipient are required", http.StatusBadRequest)
		return
	}

	ev := model.DomainEvent{
		Type:       req.Type,
		ActorID:    req.ActorID,
		ActorName:  req.ActorName,
		Recipients: req.Recipients,
		Subject:    req.Subject,
		Link:       req.Link,
		OccurredAt: time.Now().UTC(),
	}

	value, err := json.Marshal(ev)
	if err != nil {
		http.Error(w, "Failed to encode event", http.StatusInternalServerError)
		return
	}

	if err := a.producer.WriteMessages(r.Context(), kafka.Message{
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		log.Printf("Failed to produce domain event: %v", err)
		http.Error(w, "Failed to publish event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
