package domain

import (
	"encoding/json"
	"fmt"
)

// EnvelopeShape identifies which wire shape an update message arrived in.
type EnvelopeShape int

const (
	// ShapeBare is a serialized Order sent directly to the queue.
	ShapeBare EnvelopeShape = iota
	// ShapeWrapped is a notification wrapper (topic fan-out to the queue)
	// whose Message field carries the serialized Order as a string.
	ShapeWrapped
)

func (s EnvelopeShape) String() string {
	if s == ShapeWrapped {
		return "wrapped"
	}
	return "bare"
}

// UpdateEnvelope is the decoded form of an update message.
type UpdateEnvelope struct {
	Shape EnvelopeShape
	Order Order
}

// notificationWrapper mirrors the subscription-delivery shape: the payload
// sits as an escaped JSON string inside the Message field.
type notificationWrapper struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// DecodeUpdateEnvelope detects the envelope shape and unwraps it. The
// wrapped shape is tried first: a bare Order carries no Message field, so a
// non-empty Message is a reliable discriminator. Decode failures and orders
// without a usable ID come back as MalformedMessageError.
func DecodeUpdateEnvelope(body []byte) (UpdateEnvelope, error) {
	var wrapper notificationWrapper
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Message != "" {
		var order Order
		if err := json.Unmarshal([]byte(wrapper.Message), &order); err != nil {
			return UpdateEnvelope{}, &MalformedMessageError{Cause: fmt.Errorf("wrapped payload: %w", err)}
		}
		if order.OrderID <= 0 {
			return UpdateEnvelope{}, &MalformedMessageError{Cause: fmt.Errorf("wrapped payload has no order id")}
		}
		return UpdateEnvelope{Shape: ShapeWrapped, Order: order}, nil
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return UpdateEnvelope{}, &MalformedMessageError{Cause: err}
	}
	if order.OrderID <= 0 {
		return UpdateEnvelope{}, &MalformedMessageError{Cause: fmt.Errorf("payload has no order id")}
	}
	return UpdateEnvelope{Shape: ShapeBare, Order: order}, nil
}
