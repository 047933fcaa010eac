package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueName is the durable queue carrying outgoing mail.
const QueueName = "hiddenplaces.mail"

// QueuePublisher sends messages to the mail queue instead of the SMTP server.
// A separate mailer process consumes the queue.
type QueuePublisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewQueuePublisher(url string) *QueuePublisher {
	return &QueuePublisher{url: url}
}

func (p *QueuePublisher) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", QueueName, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("publish mail: %w", err)
	}
	return nil
}

// channel returns the cached channel, dialing again after a failure.
func (p *QueuePublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *QueuePublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

func (p *QueuePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// QueueConsumer reads the mail queue and hands each message to Sender.
type QueueConsumer struct {
	URL      string
	Sender   Sender
	Logger   *slog.Logger
	Prefetch int
}

// Run consumes until ctx is cancelled, reconnecting with backoff when the
// broker goes away.
func (c *QueueConsumer) Run(ctx context.Context) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backoff := time.Second
	for {
		err := c.consume(ctx, logger)
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("mail consumer disconnected", "err", err, "retry_in", backoff.String())

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (c *QueueConsumer) consume(ctx context.Context, logger *slog.Logger) error {
	conn, err := amqp.Dial(c.URL)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	prefetch := c.Prefetch
	if prefetch <= 0 {
		prefetch = 10
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		logger.Warn("mail consumer qos", "err", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp queue declare: %w", err)
	}
	deliveries, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}
	logger.Info("mail consumer started", "queue", QueueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, logger, d)
		}
	}
}

// acknowledger is the part of amqp.Delivery the handler needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *QueueConsumer) handle(ctx context.Context, logger *slog.Logger, d amqp.Delivery) {
	c.process(ctx, logger, d.Body, &d)
}

// process acks delivered mail, drops malformed payloads and requeues
// messages whose delivery failed.
func (c *QueueConsumer) process(ctx context.Context, logger *slog.Logger, body []byte, ack acknowledger) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Error("mail consumer: malformed message", "err", err)
		_ = ack.Nack(false, false)
		return
	}
	if err := c.Sender.Send(ctx, msg); err != nil {
		if errors.Is(err, ErrNoRecipients) {
			logger.Error("mail consumer: message without recipients", "subject", msg.Subject)
			_ = ack.Nack(false, false)
			return
		}
		logger.Error("mail consumer: send failed", "subject", msg.Subject, "err", err)
		_ = ack.Nack(false, true)
		return
	}
	_ = ack.Ack(false)
}
