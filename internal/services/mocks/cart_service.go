package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/cart-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type CartService struct {
	mock.Mock
}

func (m *CartService) cart(args mock.Arguments) (*models.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return m.cart(m.Called(ctx, userID))
}

func (m *CartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {
	return m.cart(m.Called(ctx, userID, req))
}

func (m *CartService) RemoveItem(ctx context.Context, userID uuid.UUID, itemID string) (*models.Cart, error) {
	return m.cart(m.Called(ctx, userID, itemID))
}

func (m *CartService) IncrementQuantity(ctx context.Context, userID uuid.UUID, itemID string) (*models.Cart, error) {
	return m.cart(m.Called(ctx, userID, itemID))
}

func (m *CartService) DecrementQuantity(ctx context.Context, userID uuid.UUID, itemID string) (*models.Cart, error) {
	return m.cart(m.Called(ctx, userID, itemID))
}

func (m *CartService) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return m.cart(m.Called(ctx, userID))
}
