package httpx

import "github.com/orderlab/order-service/internal/order/domain"

// CreateOrderRequest mirrors the wire format of the Order entity. Processed
// and Total are accepted for compatibility but ignored: a new order is
// always pending.
type CreateOrderRequest struct {
	Product   string `json:"Product"`
	Quantity  int    `json:"Quantity"`
	Amount    int    `json:"Amount"`
	Processed *bool  `json:"Processed"`
	Total     *int   `json:"Total"`
}

type OrderResponse struct {
	OrderID   int    `json:"OrderId"`
	Product   string `json:"Product"`
	Quantity  int    `json:"Quantity"`
	Amount    int    `json:"Amount"`
	Processed *bool  `json:"Processed"`
	Total     *int   `json:"Total"`
}

func mapOrderToResponse(ord *domain.Order) OrderResponse {
	return OrderResponse{
		OrderID:   ord.OrderID,
		Product:   ord.Product,
		Quantity:  ord.Quantity,
		Amount:    ord.Amount,
		Processed: ord.Processed,
		Total:     ord.Total,
	}
}

// PartialCreateResponse reports a persisted order whose announcement did not
// reach every channel. The order exists; the relay retries the rest.
type PartialCreateResponse struct {
	Order          OrderResponse `json:"order"`
	FailedChannels []string      `json:"failed_channels"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
