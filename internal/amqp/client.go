// Package amqp publishes and consumes budget alerts over RabbitMQ.
package amqp

import (
	"context"
	"fmt"
	"time"

	"expensync/internal/alerts"
	"expensync/internal/log"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *log.Logger
}

var _ alerts.Publisher = (*Client)(nil)

func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return client, nil
}

func (c *Client) setup() error {
	// durable direct exchange, not auto-deleted, not internal
	if err := c.channel.ExchangeDeclare(c.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// Routing key is the queue name.
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishBudgetAlert sends a persistent JSON message for a.
func (c *Client) PublishBudgetAlert(ctx context.Context, a alerts.Alert) error {
	body, err := NewBudgetAlertMessage(a).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.logger.InfoContext(ctx, "Published budget alert",
		log.FieldUserID, a.UserID,
		"month", a.Month,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// ConsumeBudgetAlerts delivers alerts to handler until ctx is done. Messages
// that fail to decode are dropped; handler errors requeue the message.
func (c *Client) ConsumeBudgetAlerts(ctx context.Context, handler func(alerts.Alert) error) error {
	msgs, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming budget alerts", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			if err := c.handle(ctx, delivery, handler); err != nil {
				c.logger.ErrorContext(ctx, "Failed to acknowledge message", log.FieldError, err)
			}
		}
	}
}

func (c *Client) handle(ctx context.Context, d amqp091.Delivery, handler func(alerts.Alert) error) error {
	msg, err := BudgetAlertMessageFromJSON(d.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err)
		return d.Nack(false, false)
	}
	if err := handler(msg.Alert()); err != nil {
		c.logger.ErrorContext(ctx, "Failed to handle message", log.FieldError, err, log.FieldUserID, msg.UserID)
		return d.Nack(false, true)
	}
	return d.Ack(false)
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
