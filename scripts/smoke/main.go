package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

type LoginResponse struct {
	Token string `json:"token"`
}

// Walks the API surface end to end against a running stack.
func main() {
	apiAddr := "http://localhost:8081"

	// 1. Login
	reqBody, _ := json.Marshal(map[string]string{"user_id": "smoke_user"})
	resp, err := http.Post(apiAddr+"/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Token: %s...\n", loginResp.Token[:10])

	get := func(path string) {
		req, _ := http.NewRequest("GET", apiAddr+path, nil)
		req.Header.Add("Authorization", "Bearer "+loginResp.Token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Fatalf("GET %s failed: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		log.Printf("GET %s -> %d %s", path, resp.StatusCode, string(body))
	}

	// 2. Open a conversation
	convBody, _ := json.Marshal(map[string]string{"other_user_id": "smoke_peer"})
	req, _ := http.NewRequest("POST", apiAddr+"/conversations", bytes.NewBuffer(convBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+loginResp.Token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal("Conversation request failed:", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	log.Printf("POST /conversations -> %d %s", resp.StatusCode, string(body))

	// 3. Read-only surfaces
	get("/conversations")
	get("/notifications")
	get("/presence/online")
}
