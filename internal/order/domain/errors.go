package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOrderNotFound is returned by store lookups when no row matches the ID.
var ErrOrderNotFound = errors.New("order not found")

// ValidationError rejects malformed creation input before any persistence.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order: %s %s", e.Field, e.Reason)
}

// MalformedMessageError marks an update message whose envelope could not be
// decoded. The message must not be acknowledged so the queue's retry or
// dead-letter policy can deal with it.
type MalformedMessageError struct {
	Cause error
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed update message: %v", e.Cause)
}

func (e *MalformedMessageError) Unwrap() error { return e.Cause }

// PartialPublishError reports a creation where the order was persisted but
// one or more publish channels failed. The order exists; callers must not
// treat this as a total failure.
type PartialPublishError struct {
	Order    *Order
	Channels []string
	Errs     []error
}

func (e *PartialPublishError) Error() string {
	return fmt.Sprintf("order %d persisted but publish failed on %s: %v",
		e.Order.OrderID, strings.Join(e.Channels, ","), errors.Join(e.Errs...))
}

func (e *PartialPublishError) Unwrap() error { return errors.Join(e.Errs...) }
