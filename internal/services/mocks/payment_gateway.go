package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/cart-service/internal/models"
	"github.com/stretchr/testify/mock"
)

type PaymentGateway struct {
	mock.Mock
}

func (m *PaymentGateway) CreateOrder(ctx context.Context, req *models.GatewayOrderRequest) (*models.GatewayOrder, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.GatewayOrder), args.Error(1)
}

func (m *PaymentGateway) Provider() string {
	return m.Called().String(0)
}

func (m *PaymentGateway) PublicKey() string {
	return m.Called().String(0)
}
