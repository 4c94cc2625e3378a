package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/config"
	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// DefaultQueue receives restock notifications when no queue is configured.
const DefaultQueue = "restock.notifications"

// Publisher delivers restock notifications to operators.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Message is the body published for one restock run.
type Message struct {
	ComputedAt          time.Time             `json:"computedAt"`
	TotalItemsToRestock int                   `json:"totalItemsToRestock"`
	EstimatedCost       float64               `json:"estimatedCost"`
	UnavailableSources  []string              `json:"unavailableSources,omitempty"`
	Notifications       []domain.Notification `json:"notifications"`
}

// NewMessage builds the message for a computed restock result.
func NewMessage(result domain.RestockResult, computedAt time.Time) Message {
	notifications := result.Notifications
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return Message{
		ComputedAt:          computedAt.UTC(),
		TotalItemsToRestock: result.Summary.TotalItemsToRestock,
		EstimatedCost:       result.Summary.EstimatedCost,
		UnavailableSources:  result.Summary.UnavailableSources,
		Notifications:       notifications,
	}
}

func encode(msg Message) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode notification: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.ComputedAt,
		Type:         "restock.run",
		Body:         body,
	}, nil
}

// RabbitPublisher publishes to a durable RabbitMQ queue through the default exchange.
type RabbitPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &RabbitPublisher{conn: conn, channel: channel, queue: queue}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, msg Message) error {
	publishing, err := encode(msg)
	if err != nil {
		return err
	}
	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, publishing); err != nil {
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Message) error { return nil }
func (noopPublisher) Close() error                           { return nil }

// NewNoopPublisher returns a publisher that drops every message.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

// NewPublisher connects to RabbitMQ when messaging is enabled. A connection failure
// falls back to the noop publisher.
func NewPublisher(cfg config.MessagingConfig) Publisher {
	if !cfg.Enabled || cfg.URL == "" {
		return NewNoopPublisher()
	}
	pub, err := NewRabbitPublisher(cfg.URL, cfg.Queue)
	if err != nil {
		log.Warn().Err(err).Msg("notify: messaging disabled")
		return NewNoopPublisher()
	}
	log.Info().Str("queue", pub.queue).Msg("notify: publishing restock notifications")
	return pub
}
