package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/pronet/realtime/pkg/delivery"
	"github.com/pronet/realtime/pkg/model"
	"github.com/pronet/realtime/pkg/presence"
	"github.com/pronet/realtime/pkg/registry"
	"github.com/pronet/realtime/pkg/typing"
)

// Server owns the in-process realtime state: one registry of live
// connections per process, the presence tracker on top of it, the
// typing table and the delivery service. Every websocket event lands
// here.
type Server struct {
	registry *registry.Registry
	presence *presence.Tracker
	typing   *typing.Tracker
	delivery *delivery.Service
	convs    delivery.ConversationStore

	sendBuffer int
}

func NewServer(reg *registry.Registry, pres *presence.Tracker, typ *typing.Tracker, del *delivery.Service, convs delivery.ConversationStore, sendBuffer int) *Server {
	return &Server{
		registry:   reg,
		presence:   pres,
		typing:     typ,
		delivery:   del,
		convs:      convs,
		sendBuffer: sendBuffer,
	}
}

// connect registers a new connection for the user and reports it to
// the presence tracker.
func (s *Server) connect(ctx context.Context, userID string) *registry.Connection {
	conn := registry.NewConnection(userID, s.sendBuffer)
	s.presence.Connected(ctx, conn)
	log.Printf("Client connected: user=%s conn=%s", userID, conn.ID)
	return conn
}

// disconnect unconditionally cancels the connection's server-side
// state. When the user's last connection drops, their typing signals
// are cleared too so no indicator outlives them.
func (s *Server) disconnect(ctx context.Context, conn *registry.Connection) {
	if last := s.presence.Disconnected(ctx, conn); last {
		s.typing.ClearUser(conn.UserID)
	}
	log.Printf("Client disconnected: user=%s conn=%s", conn.UserID, conn.ID)
}

// handleEvent dispatches one inbound event from a client connection.
// Invalid events are answered on the origin connection only.
func (s *Server) handleEvent(ctx context.Context, conn *registry.Connection, ev model.Event) {
	switch ev.Type {
	case model.EventSendMessage:
		var p model.SendMessagePayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			s.pushError(conn, "bad_payload", "malformed send_message payload")
			return
		}
		if _, err := s.delivery.Send(ctx, conn, p); err != nil {
			// The origin already got its send_failed; keep the rest
			// of the connection alive
			if !errors.Is(err, delivery.ErrNotParticipant) && !errors.Is(err, delivery.ErrNotFound) {
				log.Printf("Send failed for user %s: %v", conn.UserID, err)
			}
		}

	case model.EventTypingStart, model.EventTypingStop:
		var p model.TypingPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			s.pushError(conn, "bad_payload", "malformed typing payload")
			return
		}
		s.handleTyping(ctx, conn, ev.Type, p)

	case model.EventGetOnlineUsers:
		conn.Push(model.MustEvent(model.EventOnlineUsersList, model.OnlineUsersPayload{
			Users: s.presence.OnlineUsers(),
		}))

	default:
		s.pushError(conn, "unknown_event", string(ev.Type))
	}
}

func (s *Server) handleTyping(ctx context.Context, conn *registry.Connection, t model.EventType, p model.TypingPayload) {
	conv, err := s.convs.GetConversation(ctx, p.ConversationID)
	if err != nil {
		log.Printf("Typing event: conversation %d lookup failed: %v", p.ConversationID, err)
		return
	}
	if conv == nil || !conv.HasParticipant(conn.UserID) {
		// Rejected silently; never reaches the other user
		return
	}

	if t == model.EventTypingStart {
		s.typing.Start(conv.ID, conn.UserID, conv.Peer(conn.UserID))
	} else {
		s.typing.Stop(conv.ID, conn.UserID)
	}
}

func (s *Server) pushError(conn *registry.Connection, code, msg string) {
	conn.Push(model.MustEvent(model.EventError, model.ErrorPayload{Code: code, Message: msg}))
}
