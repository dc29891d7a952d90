package awsx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/orderlab/order-service/internal/coordinator/outbox"
	"github.com/orderlab/order-service/internal/order/domain"
	"github.com/orderlab/order-service/internal/order/ports"
)

// Event-bus entry identity, fixed by the consumers' rules.
const (
	eventSource     = "order.service"
	eventDetailType = "OrderCreated"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type eventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher implements ports.EventPublisher on SNS (broadcast) and
// EventBridge (structured event bus).
type Publisher struct {
	clients *Clients
	sns     snsAPI         // overrides clients when set (tests)
	eb      eventBridgeAPI // overrides clients when set (tests)

	topicARN string
	busName  string
}

func NewPublisher(clients *Clients, topicARN, busName string) *Publisher {
	return &Publisher{clients: clients, topicARN: topicARN, busName: busName}
}

func newPublisherWithAPIs(sns snsAPI, eb eventBridgeAPI, topicARN, busName string) *Publisher {
	return &Publisher{sns: sns, eb: eb, topicARN: topicARN, busName: busName}
}

// Publish encodes the order once per channel and attempts both sinks. The
// outcomes are independent: a broadcast failure never suppresses the event
// bus attempt, and vice versa.
func (p *Publisher) Publish(ctx context.Context, ord *domain.Order) ports.PublishResult {
	payload, err := json.Marshal(ord)
	if err != nil {
		err = fmt.Errorf("awsx: encode order %d: %w", ord.OrderID, err)
		return ports.PublishResult{Broadcast: err, EventBus: err}
	}
	return ports.PublishResult{
		Broadcast: p.publishBroadcast(ctx, payload),
		EventBus:  p.publishEvent(ctx, payload),
	}
}

// PublishChannel delivers a pre-encoded payload to one named channel.
func (p *Publisher) PublishChannel(ctx context.Context, channel string, payload []byte) error {
	switch channel {
	case outbox.ChannelBroadcast:
		return p.publishBroadcast(ctx, payload)
	case outbox.ChannelEventBus:
		return p.publishEvent(ctx, payload)
	default:
		return fmt.Errorf("awsx: unknown publish channel %q", channel)
	}
}

func (p *Publisher) publishBroadcast(ctx context.Context, payload []byte) error {
	api := p.sns
	if api == nil {
		cli, err := p.clients.SNS(ctx)
		if err != nil {
			return err
		}
		api = cli
	}
	_, err := api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("awsx: sns publish: %w", err)
	}
	return nil
}

func (p *Publisher) publishEvent(ctx context.Context, payload []byte) error {
	api := p.eb
	if api == nil {
		cli, err := p.clients.EventBridge(ctx)
		if err != nil {
			return err
		}
		api = cli
	}
	out, err := api.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{{
			Source:       aws.String(eventSource),
			DetailType:   aws.String(eventDetailType),
			Detail:       aws.String(string(payload)),
			EventBusName: aws.String(p.busName),
		}},
	})
	if err != nil {
		return fmt.Errorf("awsx: put events: %w", err)
	}
	// PutEvents reports per-entry failures in the response, not as an error.
	if out.FailedEntryCount > 0 {
		for _, entry := range out.Entries {
			if entry.ErrorCode != nil {
				return fmt.Errorf("awsx: put events entry rejected: %s: %s",
					aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
			}
		}
		return fmt.Errorf("awsx: put events: %d entries failed", out.FailedEntryCount)
	}
	return nil
}
