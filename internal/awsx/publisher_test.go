package awsx

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlab/order-service/internal/coordinator/outbox"
	"github.com/orderlab/order-service/internal/order/domain"
)

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

type fakeEventBridge struct {
	in  *eventbridge.PutEventsInput
	out *eventbridge.PutEventsOutput
	err error
}

func (f *fakeEventBridge) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	if f.out == nil {
		return &eventbridge.PutEventsOutput{}, nil
	}
	return f.out, nil
}

const (
	testTopicARN = "arn:aws:sns:eu-north-1:000000000000:OrderCreatedTopic"
	testBusName  = "CustomEventBus"
)

func testOrder() *domain.Order {
	processed := false
	return &domain.Order{OrderID: 7, Product: "Widget", Quantity: 3, Amount: 10, Processed: &processed}
}

func TestPublishBothSinks(t *testing.T) {
	snsAPI := &fakeSNS{}
	ebAPI := &fakeEventBridge{}
	p := newPublisherWithAPIs(snsAPI, ebAPI, testTopicARN, testBusName)

	result := p.Publish(context.Background(), testOrder())
	require.True(t, result.Ok())

	// Broadcast: order JSON to the topic with field names preserved.
	assert.Equal(t, testTopicARN, aws.ToString(snsAPI.in.TopicArn))
	assert.Contains(t, aws.ToString(snsAPI.in.Message), `"OrderId":7`)
	assert.Contains(t, aws.ToString(snsAPI.in.Message), `"Product":"Widget"`)

	// Event bus: fixed source and detail-type, same payload.
	require.Len(t, ebAPI.in.Entries, 1)
	entry := ebAPI.in.Entries[0]
	assert.Equal(t, "order.service", aws.ToString(entry.Source))
	assert.Equal(t, "OrderCreated", aws.ToString(entry.DetailType))
	assert.Equal(t, testBusName, aws.ToString(entry.EventBusName))
	assert.Equal(t, aws.ToString(snsAPI.in.Message), aws.ToString(entry.Detail))
}

// A failure on one sink must not suppress the attempt on the other.
func TestPublishSinkIndependence(t *testing.T) {
	snsAPI := &fakeSNS{err: errors.New("topic gone")}
	ebAPI := &fakeEventBridge{}
	p := newPublisherWithAPIs(snsAPI, ebAPI, testTopicARN, testBusName)

	result := p.Publish(context.Background(), testOrder())
	assert.Error(t, result.Broadcast)
	assert.NoError(t, result.EventBus)
	assert.NotNil(t, ebAPI.in, "event bus attempted despite broadcast failure")
	assert.Equal(t, []string{outbox.ChannelBroadcast}, result.FailedChannels())

	snsAPI = &fakeSNS{}
	ebAPI = &fakeEventBridge{err: errors.New("bus gone")}
	p = newPublisherWithAPIs(snsAPI, ebAPI, testTopicARN, testBusName)

	result = p.Publish(context.Background(), testOrder())
	assert.NoError(t, result.Broadcast)
	assert.Error(t, result.EventBus)
	assert.NotNil(t, snsAPI.in)
	assert.Equal(t, []string{outbox.ChannelEventBus}, result.FailedChannels())
}

// PutEvents reports per-entry rejections in the response body, not as a call
// error; those must still surface as failures.
func TestPublishEventEntryRejection(t *testing.T) {
	ebAPI := &fakeEventBridge{out: &eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []ebtypes.PutEventsResultEntry{{
			ErrorCode:    aws.String("InternalFailure"),
			ErrorMessage: aws.String("try again"),
		}},
	}}
	p := newPublisherWithAPIs(&fakeSNS{}, ebAPI, testTopicARN, testBusName)

	result := p.Publish(context.Background(), testOrder())
	assert.NoError(t, result.Broadcast)
	assert.ErrorContains(t, result.EventBus, "InternalFailure")
}

func TestPublishChannel(t *testing.T) {
	snsAPI := &fakeSNS{}
	ebAPI := &fakeEventBridge{}
	p := newPublisherWithAPIs(snsAPI, ebAPI, testTopicARN, testBusName)

	payload := []byte(`{"OrderId":7}`)

	require.NoError(t, p.PublishChannel(context.Background(), outbox.ChannelBroadcast, payload))
	assert.Equal(t, string(payload), aws.ToString(snsAPI.in.Message))
	assert.Nil(t, ebAPI.in)

	require.NoError(t, p.PublishChannel(context.Background(), outbox.ChannelEventBus, payload))
	require.Len(t, ebAPI.in.Entries, 1)
	assert.Equal(t, string(payload), aws.ToString(ebAPI.in.Entries[0].Detail))

	assert.Error(t, p.PublishChannel(context.Background(), "smoke-signal", payload))
}
