package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type RateLimitRepository struct {
	mock.Mock
}

func (m *RateLimitRepository) Allow(ctx context.Context, subject string) (bool, int, int, error) {
	args := m.Called(ctx, subject)

	return args.Bool(0), args.Int(1), args.Int(2), args.Error(3)
}
