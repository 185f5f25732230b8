package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	logf "github.com/reena96/spendsense-sub001/internal/log"
)

// defaultPublishTimeout bounds publishes when no timeout is configured.
const defaultPublishTimeout = 5 * time.Second

// Client wraps one AMQP connection with a direct exchange and the two
// queues the signals pipeline uses: summary requests in, serialized
// summaries out.
type Client struct {
	conn           *amqp091.Connection
	channel        *amqp091.Channel
	exchangeName   string
	requestQueue   string
	resultQueue    string
	publishTimeout time.Duration
}

func NewClient(url, exchangeName, requestQueue, resultQueue string, publishTimeout time.Duration) (*Client, error) {
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
		conn:           conn,
		channel:        channel,
		exchangeName:   exchangeName,
		requestQueue:   requestQueue,
		resultQueue:    resultQueue,
		publishTimeout: publishTimeout,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
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

	for _, queue := range []string{c.requestQueue, c.resultQueue} {
		_, err = c.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// Routing key matches the queue name on a direct exchange.
		err = c.channel.QueueBind(queue, queue, c.exchangeName, false, nil)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

// PublishSummaryRequest publishes a recomputation request for one user.
func (c *Client) PublishSummaryRequest(ctx context.Context, userID, referenceDate string) error {
	msg := NewSummaryRequestMessage(userID, referenceDate)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	if err := c.publish(ctx, c.requestQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published summary request",
		logf.FieldComponent, logf.ComponentAMQP,
		logf.FieldUserID, userID,
		logf.FieldReferenceDate, referenceDate,
		logf.FieldExchange, c.exchangeName,
		logf.FieldQueue, c.requestQueue)
	return nil
}

// PublishSummaryReady publishes one serialized behavioral summary.
func (c *Client) PublishSummaryReady(ctx context.Context, msg *SummaryReadyMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	if err := c.publish(ctx, c.resultQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published summary",
		logf.FieldComponent, logf.ComponentAMQP,
		logf.FieldUserID, msg.UserID,
		"generated_at", msg.GeneratedAt,
		logf.FieldExchange, c.exchangeName,
		logf.FieldQueue, c.resultQueue)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.effectivePublishTimeout())
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
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
	return nil
}

func (c *Client) effectivePublishTimeout() time.Duration {
	if c.publishTimeout <= 0 {
		return defaultPublishTimeout
	}
	return c.publishTimeout
}

// ConsumeSummaryRequests consumes request messages until the context is
// cancelled. Handler errors Nack-and-requeue; malformed payloads are
// rejected without requeue.
func (c *Client) ConsumeSummaryRequests(ctx context.Context, handler func(context.Context, *SummaryRequestMessage) error) error {
	msgs, err := c.channel.Consume(
		c.requestQueue, // queue
		"",             // consumer
		false,          // auto-ack (we want manual ack)
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming summary requests",
		logf.FieldComponent, logf.ComponentAMQP,
		logf.FieldQueue, c.requestQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := SummaryRequestMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal request",
					logf.FieldComponent, logf.ComponentAMQP,
					logf.FieldError, err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle request",
					logf.FieldComponent, logf.ComponentAMQP,
					logf.FieldError, err,
					logf.FieldUserID, msg.UserID)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
			slog.InfoContext(ctx, "Processed summary request",
				logf.FieldComponent, logf.ComponentAMQP,
				logf.FieldUserID, msg.UserID)
		}
	}
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
