package razorpay

import (
	"context"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/cart-service/internal/models"
	rzp "github.com/razorpay/razorpay-go"
)

const ProviderName = "razorpay"

// orderCreator is the subset of the Razorpay SDK order resource the adapter needs.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Client struct {
	keyID  string
	orders orderCreator
}

func NewClient(keyID, keySecret string) *Client {
	return &Client{
		keyID:  keyID,
		orders: rzp.NewClient(keyID, keySecret).Order,
	}
}

func (c *Client) Provider() string {
	return ProviderName
}

// PublicKey is the key id the browser checkout widget is opened with.
func (c *Client) PublicKey() string {
	return c.keyID
}

func (c *Client) CreateOrder(ctx context.Context, req *models.GatewayOrderRequest) (*models.GatewayOrder, error) {
	// the SDK has no context support
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}

	if req.AutoCapture {
		data["payment_capture"] = 1
	}

	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}

		data["notes"] = notes
	}

	body, err := c.orders.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create failed: %w", err)
	}

	return parseOrder(body)
}

func parseOrder(body map[string]interface{}) (*models.GatewayOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay order response has no id")
	}

	order := &models.GatewayOrder{ID: id}
	order.Currency, _ = body["currency"].(string)
	order.Status, _ = body["status"].(string)

	switch amount := body["amount"].(type) {
	case float64:
		order.Amount = int64(amount)
	case int64:
		order.Amount = amount
	case int:
		order.Amount = int64(amount)
	}

	return order, nil
}
