package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Message attributes set on every notification so subscribers can filter without decoding the body.
const (
	eventTypeAttribute    = "event_type"
	resourceKindAttribute = "resource_kind"
)

// PublisherAPI is the part of the SQS client the publisher needs.
type PublisherAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher sends event notifications to a single queue.
type Publisher struct {
	client   PublisherAPI
	queueURL string
}

func NewPublisher(client PublisherAPI, queueURL string) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
	}
}

// EventMessage is the notification sent for every catalog, enrollment and review change.
type EventMessage struct {
	Type       string    `json:"type"`
	ResourceID string    `json:"resource_id"`
	Name       string    `json:"name,omitempty"`
	Price      float64   `json:"price,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	ProductID  string    `json:"product_id,omitempty"`
	Rating     int       `json:"rating,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ResourceKind is the part of the event type before the dot, e.g. "course" for "course.enrolled".
func (m EventMessage) ResourceKind() string {
	kind, _, _ := strings.Cut(m.Type, ".")
	return kind
}

// Publish sends msg as a JSON body with its type and resource kind as message attributes.
func (p *Publisher) Publish(ctx context.Context, msg EventMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			eventTypeAttribute:    stringAttribute(msg.Type),
			resourceKindAttribute: stringAttribute(msg.ResourceKind()),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send %s message to SQS: %w", msg.Type, err)
	}
	if out != nil && out.MessageId != nil {
		slog.Debug("event published", slog.String("type", msg.Type), slog.String("message_id", *out.MessageId))
	}
	return nil
}

func stringAttribute(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
}
