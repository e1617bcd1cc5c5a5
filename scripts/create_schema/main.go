package main

import (
	"log"
	"os"
	"strings"

	"github.com/pronet/realtime/pkg/db"
)

// Bootstraps the keyspace and tables the realtime layer reads and
// writes. Note: in production, schema creation should be handled by
// migration tools.
func main() {
	hostsStr := os.Getenv("SCYLLA_HOSTS")
	if hostsStr == "" {
		hostsStr = "localhost:9042"
	}
	hosts := strings.Split(hostsStr, ",")

	sysSession, err := db.NewSession(hosts, "system")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB system keyspace: %v", err)
	}

	err = sysSession.Query(`CREATE KEYSPACE IF NOT EXISTS realtime WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : 1 }`).Exec()
	if err != nil {
		log.Fatalf("Failed to create keyspace: %v", err)
	}
	sysSession.Close()

	session, err := db.NewSession(hosts, "realtime")
	if err != nil {
		log.Fatalf("Failed to connect to realtime keyspace: %v", err)
	}
	defer session.Close()

	tables := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			conversation_id bigint,
			id bigint,
			sender_id text,
			content text,
			attachments list<text>,
			created_at timestamp,
			PRIMARY KEY (conversation_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id bigint PRIMARY KEY,
			user_low text,
			user_high text,
			created_at timestamp,
			last_message_at timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS conversations_by_pair (
			user_low text,
			user_high text,
			conversation_id bigint,
			PRIMARY KEY ((user_low, user_high))
		)`,
		`CREATE TABLE IF NOT EXISTS conversations_by_user (
			user_id text,
			conversation_id bigint,
			PRIMARY KEY (user_id, conversation_id)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			recipient_id text,
			id bigint,
			type text,
			title text,
			message text,
			link text,
			read boolean,
			created_at timestamp,
			PRIMARY KEY (recipient_id, id)
		) WITH CLUSTERING ORDER BY (id DESC)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			user_id text,
			contact_id text,
			PRIMARY KEY (user_id, contact_id)
		)`,
	}

	for _, q := range tables {
		if err := session.Query(q).Exec(); err != nil {
			log.Fatalf("Failed to create table: %v", err)
		}
	}

	log.Println("Schema created successfully")
}
