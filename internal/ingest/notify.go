package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	eventsExchange = "storage.events"
	routingKey     = "file.ingested"
)

// AMQPNotifier publishes a file.ingested event for every finished run
type AMQPNotifier struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

type ingestedEvent struct {
	JobID    string   `json:"jobId"`
	FileID   uint     `json:"fileId"`
	State    string   `json:"state"`
	Keywords []string `json:"keywords"`
	Error    string   `json:"error,omitempty"`
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker, %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel, %w", err)
	}

	if err := ch.ExchangeDeclare(eventsExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange, %w", err)
	}

	return &AMQPNotifier{conn: conn, channel: ch}, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, r Result) error {
	ev := ingestedEvent{
		JobID:    r.JobID,
		FileID:   r.FileID,
		State:    r.State,
		Keywords: r.Keywords,
	}
	if r.Err != nil {
		ev.Error = r.Err.Error()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Channels aren't safe for concurrent publishing
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.channel.PublishWithContext(ctx, eventsExchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	})
}

func (n *AMQPNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.channel.Close()
	n.conn.Close()
}
