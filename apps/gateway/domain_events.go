package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"

	"github.com/pronet/realtime/pkg/model"
	"github.com/pronet/realtime/pkg/notify"
)

// DomainEventConsumer reads the platform's domain events (likes,
// comments, connection requests, newsletter editions) off Kafka and
// hands them to the notification fan-out. Consumption is at-least-
// once; a redelivered event produces a duplicate notification.
type DomainEventConsumer struct {
	reader *kafka.Reader
	fanout *notify.Fanout
}

func NewDomainEventConsumer(brokers []string, topic, groupID string, fanout *notify.Fanout) *DomainEventConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return &DomainEventConsumer{reader: r, fanout: fanout}
}

func (c *DomainEventConsumer) Consume(ctx context.Context) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Error reading domain event: %v. Retrying in 1s...", err)
			time.Sleep(1 * time.Second)
			continue
		}

		var ev model.DomainEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			log.Printf("Failed to unmarshal domain event: %v", err)
			continue
		}

		// The actor never notifies themselves; dedupe within one
		// event (a subscriber listed twice gets one row)
		recipients := lo.Uniq(lo.Filter(ev.Recipients, func(r string, _ int) bool {
			return r != "" && r != ev.ActorID
		}))
		if len(recipients) == 0 {
			continue
		}

		title, body := notify.Render(ev)
		c.fanout.NotifyAll(recipients, ev.Type, title, body, ev.Link)
	}
}

func (c *DomainEventConsumer) Close() error {
	return c.reader.Close()
}
