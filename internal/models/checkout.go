package models

type CheckoutLine struct {
	ID       string  `json:"id,omitempty"`
	Price    float64 `json:"price"    validate:"gte=0,lte=10000000"`
	Quantity int     `json:"quantity" validate:"gte=1,lte=10000"`
}

type CheckoutRequest struct {
	Items []CheckoutLine `json:"items" validate:"dive"`
}

// CheckoutResponse is written flat (not under "data") so payment widgets can read the order
// fields directly.
type CheckoutResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

// GatewayOrderRequest is what the checkout service asks a payment gateway to create.
// Amount is in minor currency units.
type GatewayOrderRequest struct {
	Amount      int64
	Currency    string
	Receipt     string
	AutoCapture bool
	Notes       map[string]string
}

type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Status   string
}

// CheckoutEvent is published once the gateway has accepted an order.
type CheckoutEvent struct {
	Event     string `json:"event"`
	OrderID   string `json:"order_id"`
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Provider  string `json:"provider"`
	Receipt   string `json:"receipt"`
	CreatedAt int64  `json:"created_at"`
}
