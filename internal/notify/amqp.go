package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AMQPPublisher publishes events to RabbitMQ queues named after the event.
// Queues are durable and messages persistent so emitted events survive broker
// restarts.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *logrus.Logger

	mu       sync.Mutex
	declared map[string]struct{}
}

func NewAMQP(url string, log *logrus.Logger) (*AMQPPublisher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	return &AMQPPublisher{
		conn:     conn,
		ch:       ch,
		log:      log,
		declared: make(map[string]struct{}),
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		p.log.WithError(err).WithField("event", event).Warn("marshal event")
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureQueue(event); err != nil {
		p.log.WithError(err).WithField("event", event).Warn("declare queue")
		return err
	}

	err = p.ch.PublishWithContext(ctx,
		"",    // default exchange
		event, // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		p.log.WithError(err).WithField("event", event).Warn("publish event")
		return err
	}
	return nil
}

func (p *AMQPPublisher) ensureQueue(name string) error {
	if _, ok := p.declared[name]; ok {
		return nil
	}
	if _, err := p.ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return err
	}
	p.declared[name] = struct{}{}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}
