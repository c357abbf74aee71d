package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/cart-service/internal/models"
	"github.com/stretchr/testify/mock"
)

type Publisher struct {
	mock.Mock
}

func (m *Publisher) PublishOrderCreated(ctx context.Context, event *models.CheckoutEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *Publisher) Close() error {
	return m.Called().Error(0)
}
