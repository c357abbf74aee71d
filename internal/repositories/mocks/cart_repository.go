package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/cart-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type CartRepository struct {
	mock.Mock
}

func (m *CartRepository) GetUserCart(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.User), args.Error(1)
}

// SaveCart bumps user.CartVersion on success, as the real repository does.
func (m *CartRepository) SaveCart(ctx context.Context, user *models.User) error {
	err := m.Called(ctx, user).Error(0)
	if err == nil {
		user.CartVersion++
	}

	return err
}
