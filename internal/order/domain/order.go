package domain

// Order is the single persistent entity of the service. Field names follow
// the wire format consumers already depend on (PascalCase JSON keys).
type Order struct {
	OrderID   int    `json:"OrderId"`
	Product   string `json:"Product"`
	Quantity  int    `json:"Quantity"`
	Amount    int    `json:"Amount"`
	Processed *bool  `json:"Processed"`
	Total     *int   `json:"Total"`
}

// OrderDraft is the validated creation input before the store assigns an ID.
type OrderDraft struct {
	Product  string
	Quantity int
	Amount   int
}

// Completed reports whether the order reached its terminal state.
// Processed is tri-state: nil (outcome unknown), false (pending), true (done).
func (o *Order) Completed() bool {
	return o.Processed != nil && *o.Processed
}

// ComputeTotal derives the order total. Amount is an opaque per-unit
// multiplier; the contract is only that Total == Quantity * Amount.
func (o *Order) ComputeTotal() int {
	return o.Quantity * o.Amount
}

// NewDraft validates creation input and returns a draft ready for the store.
// Any caller-supplied Processed/Total values are discarded: a new order is
// always pending with no total.
func NewDraft(product string, quantity, amount int) (OrderDraft, error) {
	if product == "" {
		return OrderDraft{}, &ValidationError{Field: "Product", Reason: "must not be empty"}
	}
	if quantity <= 0 {
		return OrderDraft{}, &ValidationError{Field: "Quantity", Reason: "must be positive"}
	}
	return OrderDraft{Product: product, Quantity: quantity, Amount: amount}, nil
}
