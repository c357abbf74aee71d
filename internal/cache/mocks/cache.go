package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type Cache struct {
	mock.Mock
}

func (m *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)

	return args.Bool(0), args.Error(1)
}

func (m *Cache) Set(ctx context.Context, key string, value any, version int64, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, version, expiration)

	return args.Bool(0), args.Error(1)
}

func (m *Cache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *Cache) Close() error {
	return m.Called().Error(0)
}
