package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const (
	defaultMaxMessages = 10
	defaultWaitTime    = 20 * time.Second
	defaultErrBackoff  = 2 * time.Second
)

var (
	errEmptyBody   = errors.New("message body is nil")
	errMissingType = errors.New("message has no event type")
)

// ConsumerAPI is the part of the SQS client the consumer needs.
type ConsumerAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Handler is called for every decoded message. A returned error leaves the message on the queue.
type Handler func(ctx context.Context, msg EventMessage) error

// ConsumerOption tunes the long-poll loop.
type ConsumerOption func(*Consumer)

// WithMaxMessages sets the batch size of a single receive call (1-10 on SQS).
func WithMaxMessages(n int32) ConsumerOption {
	return func(c *Consumer) { c.maxMessages = n }
}

// WithWaitTime sets the long-poll wait of a receive call.
func WithWaitTime(d time.Duration) ConsumerOption {
	return func(c *Consumer) { c.waitTime = d }
}

// WithErrorBackoff sets the pause after a failed receive call.
func WithErrorBackoff(d time.Duration) ConsumerOption {
	return func(c *Consumer) { c.errBackoff = d }
}

// Consumer long-polls a queue and hands every event notification to a Handler.
type Consumer struct {
	client   ConsumerAPI
	queueURL string
	handler  Handler

	maxMessages int32
	waitTime    time.Duration
	errBackoff  time.Duration
}

// NewConsumer builds a consumer for queueURL. A nil handler logs each message.
func NewConsumer(client ConsumerAPI, queueURL string, handler Handler, opts ...ConsumerOption) *Consumer {
	if handler == nil {
		handler = LogMessage
	}
	c := &Consumer{
		client:      client,
		queueURL:    queueURL,
		handler:     handler,
		maxMessages: defaultMaxMessages,
		waitTime:    defaultWaitTime,
		errBackoff:  defaultErrBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LogMessage writes msg to the default logger.
func LogMessage(_ context.Context, msg EventMessage) error {
	slog.Info("Received event notification",
		slog.String("type", msg.Type),
		slog.String("resource_id", msg.ResourceID),
		slog.String("name", msg.Name),
		slog.Float64("price", msg.Price),
		slog.String("user_id", msg.UserID),
		slog.String("product_id", msg.ProductID),
		slog.Int("rating", msg.Rating),
		slog.Time("occurred_at", msg.OccurredAt),
	)
	return nil
}

// Start polls until ctx is cancelled. Receive failures are logged and retried after a pause.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("Starting SQS consumer", slog.String("queueURL", c.queueURL))

	for {
		if err := ctx.Err(); err != nil {
			slog.Info("Stopping SQS consumer")
			return err
		}

		err := c.receiveMessages(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}
		slog.Error("Error receiving messages", slog.Any("err", err))

		select {
		case <-ctx.Done():
		case <-time.After(c.errBackoff):
		}
	}
}

func (c *Consumer) receiveMessages(ctx context.Context) error {
	result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(c.queueURL),
		MaxNumberOfMessages:   c.maxMessages,
		WaitTimeSeconds:       int32(c.waitTime / time.Second),
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, message := range result.Messages {
		if err := c.processMessage(ctx, message); err != nil {
			slog.Error("Error processing message", slog.Any("err", err), slog.String("message_id", aws.ToString(message.MessageId)))
			continue
		}
		if err := c.deleteMessage(ctx, message); err != nil {
			slog.Error("Error deleting message", slog.Any("err", err))
		}
	}
	return nil
}

func (c *Consumer) processMessage(ctx context.Context, message types.Message) error {
	if message.Body == nil {
		return errEmptyBody
	}

	var msg EventMessage
	if err := json.Unmarshal([]byte(*message.Body), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if msg.Type == "" {
		if attr, ok := message.MessageAttributes[eventTypeAttribute]; ok {
			msg.Type = aws.ToString(attr.StringValue)
		}
	}
	if msg.Type == "" {
		return errMissingType
	}

	return c.handler(ctx, msg)
}

func (c *Consumer) deleteMessage(ctx context.Context, message types.Message) error {
	if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: message.ReceiptHandle,
	}); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
