// Package mail hands outgoing mail to the delivery worker over AMQP.
package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// PasswordResetType tags password recovery jobs on the queue
const PasswordResetType = "password_reset"

// Message is the envelope written to the mail queue
type Message struct {
	Type      string                   `json:"type"`
	Mail      domain.PasswordResetMail `json:"mail"`
	Timestamp time.Time                `json:"timestamp"`
}

// NewPasswordResetMessage wraps mail in a queue envelope
func NewPasswordResetMessage(mail domain.PasswordResetMail) Message {
	return Message{Type: PasswordResetType, Mail: mail, Timestamp: time.Now().UTC()}
}

// ToJSON serializes the message
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AMQPPublisher publishes mail jobs to a durable direct exchange
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
	mu       sync.Mutex
}

var _ domain.MailPublisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher dials url and declares the exchange, queue and binding
func NewAMQPPublisher(url, exchange, queue string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		queue:    queue,
	}

	if err := p.setup(); err != nil {
		p.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return p, nil
}

func (p *AMQPPublisher) setup() error {
	if err := p.channel.ExchangeDeclare(p.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := p.channel.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// routing key is the queue name
	if err := p.channel.QueueBind(p.queue, p.queue, p.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishPasswordReset queues a recovery mail as a persistent message
func (p *AMQPPublisher) PublishPasswordReset(ctx context.Context, mail domain.PasswordResetMail) error {
	body, err := NewPasswordResetMessage(mail).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx, p.exchange, p.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Type:         PasswordResetType,
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	log.Info().
		Str("exchange", p.exchange).
		Str("queue", p.queue).
		Str("type", PasswordResetType).
		Msg("Published mail job")

	return nil
}

// Close closes the channel and the connection
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoOpPublisher logs mail jobs instead of queueing them. Used when no broker
// is configured.
type NoOpPublisher struct{}

var _ domain.MailPublisher = NoOpPublisher{}

// PublishPasswordReset logs the recipient and drops the job
func (NoOpPublisher) PublishPasswordReset(ctx context.Context, mail domain.PasswordResetMail) error {
	log.Warn().Str("to", mail.To).Msg("AMQP_URL not set, password reset mail not sent")
	return nil
}
