package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"report-logger/metrics"
	"report-logger/models"

	"github.com/apex/log"
	"github.com/streadway/amqp"
)

// Routing keys of report lifecycle events.
const (
	ReportCreated        = "report.created"
	ReportUpdated        = "report.updated"
	ReportDeleted        = "report.deleted"
	ReportPictureDeleted = "report.picture_deleted"
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends JSON messages to one durable direct exchange.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  channel
	exchange string
	now      func() time.Time
}

// NewPublisher dials amqpURL and declares the exchange.
func NewPublisher(amqpURL, exchangeName string) (*Publisher, error) {
	conn, err := amqp.DialConfig(amqpURL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchangeName,
		now:      time.Now,
	}, nil
}

// PublishWithRoutingKey sends message as persistent JSON.
func (p *Publisher) PublishWithRoutingKey(routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.Publish(p.exchange, routingKey, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// PublishReportEvent sends a report lifecycle event. It is fire-and-forget:
// failures are logged and counted, never returned. A nil Publisher is a no-op.
func (p *Publisher) PublishReportEvent(eventType string, reportID int64) {
	if p == nil {
		return
	}
	event := models.ReportEvent{Type: eventType, ReportID: reportID, At: p.now()}
	if err := p.PublishWithRoutingKey(eventType, event); err != nil {
		metrics.ReportEventsTotal.WithLabelValues(eventType, "error").Inc()
		log.Errorf("Failed to publish %s for report %d: %v", eventType, reportID, err)
		return
	}
	metrics.ReportEventsTotal.WithLabelValues(eventType, "ok").Inc()
	log.Debugf("Published %s for report %d", eventType, reportID)
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.channel != nil {
		if channelErr := p.channel.Close(); channelErr != nil {
			log.Warnf("Failed to close channel: %v", channelErr)
			err = channelErr
		}
	}
	if p.conn != nil {
		if connErr := p.conn.Close(); connErr != nil {
			log.Warnf("Failed to close connection: %v", connErr)
			if err == nil {
				err = connErr
			}
		}
	}
	return err
}

func (p *Publisher) Exchange() string {
	return p.exchange
}
