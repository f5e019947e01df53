package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publisher is the subset of *amqp.Channel used for publishing.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes messages as JSON to a topic exchange with routing
// key "lead.<event>".
type AMQPNotifier struct {
	conn     *amqp.Connection
	ch       publisher
	closer   func() error
	exchange string
}

// DialAMQP connects to url and declares a durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPNotifier{conn: conn, ch: ch, closer: ch.Close, exchange: exchange}, nil
}

// RoutingKey returns the topic used for event.
func RoutingKey(event Event) string { return "lead." + string(event) }

func (n *AMQPNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return n.ch.PublishWithContext(ctx, n.exchange, RoutingKey(msg.Event), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.SentAt,
		Type:         string(msg.Event),
		Body:         body,
	})
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() error {
	if n.closer != nil {
		_ = n.closer()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
