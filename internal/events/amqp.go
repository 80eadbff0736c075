package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"kiguca/internal/log"
)

// AMQPBridge mirrors bus events onto a RabbitMQ exchange so external
// consumers (sync workers, dashboards) can observe data changes. It is an
// optional outward tap, not a second delivery path for the UI: the in-process
// bus stays authoritative and keeps working when the broker is down.
type AMQPBridge struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *log.Logger
}

func NewAMQPBridge(url, exchangeName, queueName string, logger *log.Logger) (*AMQPBridge, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	bridge := &AMQPBridge{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}

	if err := bridge.setup(); err != nil {
		bridge.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return bridge, nil
}

func (b *AMQPBridge) setup() error {
	err := b.channel.ExchangeDeclare(
		b.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = b.channel.QueueDeclare(
		b.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = b.channel.QueueBind(
		b.queueName,    // queue name
		b.queueName,    // routing key (same as queue name for direct exchange)
		b.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Attach subscribes the bridge to the bus and returns the unsubscribe
// function. Publish failures are logged and dropped.
func (b *AMQPBridge) Attach(bus *Bus) func() {
	return bus.Subscribe(func(ev DataChanged) {
		if err := b.publish(context.Background(), ev); err != nil {
			b.logger.Warn("Failed to publish data-changed event",
				log.FieldEntity, ev.Entity,
				"action", ev.Action,
				log.FieldError, err)
		}
	})
}

func (b *AMQPBridge) publish(ctx context.Context, ev DataChanged) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = b.channel.PublishWithContext(
		ctx,
		b.exchangeName, // exchange
		b.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	b.logger.Debug("Published data-changed event",
		log.FieldEntity, ev.Entity,
		"action", ev.Action,
		"exchange", b.exchangeName,
		"queue", b.queueName)

	return nil
}

func (b *AMQPBridge) Close() error {
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
