package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/aaravmahajanofficial/cart-service/internal/models"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

const ProviderName = "stripe"

type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Client creates Stripe PaymentIntents as checkout orders. It uses a per-client API backend, so
// the package level stripe.Key is never touched.
type Client struct {
	publishableKey string
	intents        intentCreator
}

func NewClient(apiKey, publishableKey string) *Client {
	sc := client.New(apiKey, nil)

	return &Client{publishableKey: publishableKey, intents: sc.PaymentIntents}
}

func (c *Client) Provider() string {
	return ProviderName
}

func (c *Client) PublicKey() string {
	return c.publishableKey
}

func (c *Client) CreateOrder(ctx context.Context, req *models.GatewayOrderRequest) (*models.GatewayOrder, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	if req.AutoCapture {
		params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodAutomatic))
	} else {
		params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	}

	params.AddMetadata("receipt", req.Receipt)

	for k, v := range req.Notes {
		params.AddMetadata(k, v)
	}

	pi, err := c.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent create failed: %w", err)
	}

	return &models.GatewayOrder{
		ID:       pi.ID,
		Amount:   pi.Amount,
		Currency: strings.ToUpper(string(pi.Currency)),
		Status:   string(pi.Status),
	}, nil
}
