package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange domain events are published to.
const ExchangeName = "jobtrack.events"

// brokerConn and brokerChannel are the parts of *amqp.Connection and
// *amqp.Channel the publisher uses.
type brokerConn interface {
	IsClosed() bool
	Close() error
}

type brokerChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type dialFunc func() (brokerConn, brokerChannel, error)

// RabbitMQPublisher publishes events to RabbitMQ. A closed connection or
// channel is re-dialled on the next publish or ping.
type RabbitMQPublisher struct {
	dial     dialFunc
	conn     brokerConn
	channel  brokerChannel
	exchange string
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewRabbitMQPublisher dials the broker and declares the topic exchange.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	return newRabbitMQPublisher(func() (brokerConn, brokerChannel, error) {
		return dialExchange(url)
	}, logger)
}

func newRabbitMQPublisher(dial dialFunc, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &RabbitMQPublisher{dial: dial, exchange: ExchangeName, logger: logger}
	if err := p.connect(); err != nil {
		return nil, err
	}
	logger.Info("RabbitMQ publisher connected", "exchange", ExchangeName)
	return p, nil
}

func dialExchange(url string) (brokerConn, brokerChannel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return conn, ch, nil
}

// connect dials a fresh session unless the current one is still open.
// Callers hold p.mu.
func (p *RabbitMQPublisher) connect() error {
	if p.conn != nil && !p.conn.IsClosed() && p.channel != nil && !p.channel.IsClosed() {
		return nil
	}
	p.release()
	conn, ch, err := p.dial()
	if err != nil {
		return err
	}
	p.conn, p.channel = conn, ch
	return nil
}

// release closes and forgets the current session. Callers hold p.mu.
func (p *RabbitMQPublisher) release() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.channel = nil, nil
}

// Publish sends a persistent JSON message with the given routing key. A
// publish that finds the channel closed is retried once on a new session.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := publishing(routingKey, payload, time.Now())
	err := p.connect()
	if err == nil {
		err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	}
	if errors.Is(err, amqp.ErrClosed) {
		p.logger.Warn("RabbitMQ channel closed, reconnecting", "routing_key", routingKey)
		p.release()
		if err = p.connect(); err == nil {
			err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
		}
	}
	if err != nil {
		p.logger.Error("failed to publish message",
			"routing_key", routingKey,
			"error", err,
		)
		return err
	}

	p.logger.Debug("message published",
		"routing_key", routingKey,
		"message_id", msg.MessageId,
		"size", len(payload),
	)
	return nil
}

// publishing builds the AMQP message, lifting the event and correlation IDs
// out of the envelope so consumers can deduplicate without parsing the body.
func publishing(routingKey string, payload []byte, now time.Time) amqp.Publishing {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Type:         routingKey,
		Body:         payload,
	}

	event, err := DecodeEvent(payload)
	if err != nil {
		return msg
	}
	msg.MessageId = event.EventID.String()
	if event.Metadata.CorrelationID != uuid.Nil {
		msg.CorrelationId = event.Metadata.CorrelationID.String()
	}
	return msg
}

// Ping reports whether the broker is reachable, re-dialling a closed session.
func (p *RabbitMQPublisher) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		return fmt.Errorf("rabbitmq unavailable: %w", err)
	}
	return nil
}

// Close closes the publisher connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.channel != nil {
		if cerr := p.channel.Close(); cerr != nil {
			p.logger.Warn("error closing channel", "error", cerr)
		}
	}
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.conn, p.channel = nil, nil
	if err != nil {
		return err
	}

	p.logger.Info("RabbitMQ publisher closed")
	return nil
}
