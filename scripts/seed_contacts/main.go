package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/pronet/realtime/pkg/db"
)

// Seeds a symmetric contact edge so presence broadcasts between two
// users can be exercised locally. The contact graph is owned by the
// platform; this only fills in test data.
func main() {
	userA := flag.String("a", "user1", "first user id")
	userB := flag.String("b", "user2", "second user id")
	flag.Parse()

	hostsStr := os.Getenv("SCYLLA_HOSTS")
	if hostsStr == "" {
		hostsStr = "localhost:9042"
	}

	session, err := db.NewSession(strings.Split(hostsStr, ","), "realtime")
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()

	for _, pair := range [][2]string{{*userA, *userB}, {*userB, *userA}} {
		q := `INSERT INTO contacts (user_id, contact_id) VALUES (?, ?)`
		if err := session.Query(q, pair[0], pair[1]).Exec(); err != nil {
			log.Fatalf("Failed to insert contact edge: %v", err)
		}
	}

	log.Printf("Contact edge %s <-> %s created", *userA, *userB)
}
