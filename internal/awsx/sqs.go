package awsx

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/orderlab/order-service/internal/order/ports"
)

// sqsMaxBatch is the hard cap SQS places on one ReceiveMessage call.
const sqsMaxBatch = 10

// sqsAPI is the slice of the SQS client the consumer uses. Narrow so tests
// can fake it.
type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Consumer implements ports.QueueConsumer on SQS. The receipt handle of each
// delivery is surfaced as the opaque ack token.
type Consumer struct {
	clients  *Clients
	api      sqsAPI // overrides clients when set (tests)
	queueURL string
}

func NewConsumer(clients *Clients, queueURL string) *Consumer {
	return &Consumer{clients: clients, queueURL: queueURL}
}

func newConsumerWithAPI(api sqsAPI, queueURL string) *Consumer {
	return &Consumer{api: api, queueURL: queueURL}
}

func (c *Consumer) resolve(ctx context.Context) (sqsAPI, error) {
	if c.api != nil {
		return c.api, nil
	}
	return c.clients.SQS(ctx)
}

// Poll performs one long-poll cycle. Zero messages after the wait is a
// normal, empty result.
func (c *Consumer) Poll(ctx context.Context, max int, wait time.Duration) ([]ports.Message, error) {
	api, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}

	if max <= 0 || max > sqsMaxBatch {
		max = sqsMaxBatch
	}

	out, err := api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: int32(max),
		WaitTimeSeconds:     int32(wait / time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("awsx: receive messages: %w", err)
	}

	msgs := make([]ports.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, ports.Message{
			Body:     []byte(aws.ToString(m.Body)),
			AckToken: aws.ToString(m.ReceiptHandle),
		})
	}
	return msgs, nil
}

// Acknowledge deletes the delivery so it is not redelivered.
func (c *Consumer) Acknowledge(ctx context.Context, ackToken string) error {
	api, err := c.resolve(ctx)
	if err != nil {
		return err
	}
	_, err = api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: aws.String(ackToken),
	})
	if err != nil {
		return fmt.Errorf("awsx: delete message: %w", err)
	}
	return nil
}
