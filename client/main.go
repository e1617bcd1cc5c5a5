package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pronet/realtime/pkg/config"
	"github.com/pronet/realtime/pkg/model"
)

type LoginResponse struct {
	Token string `json:"token"`
}

func login(apiAddr, userID string) (string, error) {
	reqBody, _ := json.Marshal(map[string]string{"user_id": userID})
	resp, err := http.Post(apiAddr+"/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed: %s", string(body))
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", err
	}

	return loginResp.Token, nil
}

func openConversation(apiAddr, token, otherUserID string) (int64, error) {
	reqBody, _ := json.Marshal(map[string]string{"other_user_id": otherUserID})
	req, _ := http.NewRequest(http.MethodPost, apiAddr+"/conversations", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("open conversation failed: %s", string(body))
	}

	var conv struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		return 0, err
	}
	return conv.ID, nil
}

func main() {
	serverAddr := flag.String("addr", "localhost:8080", "gateway service address")
	apiAddr := flag.String("api", "http://localhost:8081", "api service address")
	userID := flag.String("user", "user1", "user id")
	peerID := flag.String("to", "", "user id to chat with (required)")
	flag.Parse()

	if *peerID == "" {
		log.Fatal("-to is required")
	}

	// 1. Login and open (or find) the one-to-one conversation
	log.Printf("Logging in as %s...", *userID)
	token, err := login(*apiAddr, *userID)
	if err != nil {
		log.Fatal("Login failed:", err)
	}

	conversationID, err := openConversation(*apiAddr, token, *peerID)
	if err != nil {
		log.Fatal("Conversation setup failed:", err)
	}
	log.Printf("Conversation %d with %s", conversationID, *peerID)

	// 2. Connect to WebSocket with token
	u := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/ws"}
	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	c, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	outbox := NewOutbox()

	send := func(t model.EventType, payload any) {
		ev, err := model.NewEvent(t, payload)
		if err != nil {
			log.Println("encode:", err)
			return
		}
		if err := c.WriteJSON(ev); err != nil {
			log.Println("write:", err)
		}
	}

	notifier := NewTypingNotifier(config.DefaultTypingDebounce, func(isTyping bool) {
		t := model.EventTypingStop
		if isTyping {
			t = model.EventTypingStart
		}
		send(t, model.TypingPayload{ConversationID: conversationID, RecipientID: *peerID})
	})

	done := make(chan struct{})

	// 3. Read pushed events
	go func() {
		defer close(done)
		for {
			var ev model.Event
			if err := c.ReadJSON(&ev); err != nil {
				log.Println("read:", err)
				return
			}
			handleEvent(outbox, ev)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// 4. Read from stdin and send messages. Each typed line counts as
	// one keystroke burst; sending stops the typing indicator.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("> ")
		for scanner.Scan() {
			text := scanner.Text()
			if text == "" {
				fmt.Print("> ")
				continue
			}

			switch {
			case text == "/quit":
				close(interrupt)
				return
			case text == "/online":
				send(model.EventGetOnlineUsers, struct{}{})
			case strings.HasPrefix(text, "/typing"):
				notifier.Keystroke()
			default:
				notifier.Stop()
				// Optimistic render, then the persistence request;
				// the input is already clear for the next line
				entry := outbox.Add(conversationID, *userID, text)
				fmt.Printf("\r%s (sending): %s\n", *userID, text)
				send(model.EventSendMessage, model.SendMessagePayload{
					ConversationID: conversationID,
					RecipientID:    *peerID,
					TempID:         entry.TempID,
					Content:        text,
				})
			}
			fmt.Print("> ")
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("interrupt")

			// Cleanly close the connection by sending a close message and then
			// waiting (with timeout) for the server to close the connection.
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("write close:", err)
				return
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}

func handleEvent(outbox *Outbox, ev model.Event) {
	switch ev.Type {
	case model.EventNewMessage:
		var p model.NewMessagePayload
		if json.Unmarshal(ev.Data, &p) == nil {
			fmt.Printf("\r%s: %s\n> ", p.Message.SenderID, p.Message.Content)
		}
	case model.EventMessageAck:
		var p model.MessageAckPayload
		if json.Unmarshal(ev.Data, &p) == nil {
			outbox.Confirm(p.TempID, p.Message)
			fmt.Printf("\r(delivered #%d)\n> ", p.Message.ID)
		}
	case model.EventSendFailed:
		var p model.SendFailedPayload
		if json.Unmarshal(ev.Data, &p) == nil {
			if draft, ok := outbox.Fail(p.TempID); ok {
				fmt.Printf("\rnot delivered (%s), draft kept: %q\n> ", p.Reason, draft)
			}
		}
	case model.EventUserTyping:
		var p model.UserTypingPayload
		if json.Unmarshal(ev.Data, &p) == nil && p.IsTyping {
			fmt.Printf("\r%s is typing...\n> ", p.UserID)
		}
	case model.EventUserStatus:
		var p model.UserStatusPayload
		if json.Unmarshal(ev.Data, &p) == nil {
			fmt.Printf("\r%s is now %s\n> ", p.UserID, p.Status)
		}
	case model.EventOnlineUsersList:
		var p model.OnlineUsersPayload
		if json.Unmarshal(ev.Data, &p) == nil {
			fmt.Printf("\ronline: %s\n> ", strings.Join(p.Users, ", "))
		}
	case model.EventNewNotification:
		var p model.NewNotificationPayload
		if json.Unmarshal(ev.Data, &p) == nil {
			fmt.Printf("\r[%s] %s\n> ", p.Notification.Title, p.Notification.Message)
		}
	}
}
