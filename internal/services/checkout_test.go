package service_test

import (
	"errors"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/cart-service/internal/config"
	appErrors "github.com/aaravmahajanofficial/cart-service/internal/errors"
	eventMocks "github.com/aaravmahajanofficial/cart-service/internal/events/mocks"
	"github.com/aaravmahajanofficial/cart-service/internal/models"
	repository "github.com/aaravmahajanofficial/cart-service/internal/repositories"
	"github.com/aaravmahajanofficial/cart-service/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/cart-service/internal/services"
	serviceMocks "github.com/aaravmahajanofficial/cart-service/internal/services/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.UnixMilli(1700000000123)

type checkoutDeps struct {
	carts     *mocks.CartRepository
	limiter   *mocks.RateLimitRepository
	gateway   *serviceMocks.PaymentGateway
	publisher *eventMocks.Publisher
}

func setupCheckoutService(t *testing.T, trustClientPrices bool) (service.CheckoutService, *checkoutDeps) {
	t.Helper()

	deps := &checkoutDeps{
		carts:     new(mocks.CartRepository),
		limiter:   new(mocks.RateLimitRepository),
		gateway:   new(serviceMocks.PaymentGateway),
		publisher: new(eventMocks.Publisher),
	}

	deps.gateway.On("Provider").Return("razorpay").Maybe()
	deps.gateway.On("PublicKey").Return("rzp_test_key").Maybe()

	cfg := config.CheckoutConfig{
		Provider:          config.ProviderRazorpay,
		Currency:          "INR",
		ReceiptPrefix:     "receipt_",
		TrustClientPrices: trustClientPrices,
		MaxOrderAmount:    100000000000,
	}

	svc := service.NewCheckoutService(deps.carts, deps.limiter, deps.gateway, deps.publisher, cfg)
	service.SetCheckoutClock(svc, func() time.Time { return fixedNow })

	t.Cleanup(func() {
		deps.carts.AssertExpectations(t)
		deps.limiter.AssertExpectations(t)
		deps.gateway.AssertExpectations(t)
		deps.publisher.AssertExpectations(t)
	})

	return svc, deps
}

func (d *checkoutDeps) allow(userID uuid.UUID) {
	d.limiter.On("Allow", mock.Anything, userID.String()).Return(true, 4, 0, nil).Once()
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name     string
		lines    []models.CheckoutLine
		expected string
		minor    int64
	}{
		{name: "Single Line", lines: []models.CheckoutLine{{Price: 100, Quantity: 2}}, expected: "200", minor: 20000},
		{name: "Empty", lines: nil, expected: "0", minor: 0},
		{
			name:     "Binary Fractions Do Not Drift",
			lines:    []models.CheckoutLine{{Price: 0.1, Quantity: 3}, {Price: 0.2, Quantity: 1}},
			expected: "0.5",
			minor:    50,
		},
		{
			name:     "Sub Minor Unit Rounds",
			lines:    []models.CheckoutLine{{Price: 19.995, Quantity: 1}},
			expected: "19.995",
			minor:    2000,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			total := service.Total(tc.lines)

			assert.True(t, decimal.RequireFromString(tc.expected).Equal(total), "got %s", total)

			minor, ok := service.MinorUnits(total)
			assert.True(t, ok)
			assert.Equal(t, tc.minor, minor)
		})
	}
}

func TestMinorUnitsOutOfRange(t *testing.T) {
	for _, price := range []float64{1e17, 1e18, 1e20} {
		t.Run(decimal.NewFromFloat(price).String(), func(t *testing.T) {
			minor, ok := service.MinorUnits(service.Total([]models.CheckoutLine{{Price: price, Quantity: 1}}))

			assert.False(t, ok, "amount must not wrap around int64")
			assert.Zero(t, minor)
		})
	}

	t.Run("Largest Representable", func(t *testing.T) {
		minor, ok := service.MinorUnits(decimal.RequireFromString("92233720368547758.07"))

		assert.True(t, ok)
		assert.Equal(t, int64(math.MaxInt64), minor)
	})
}

func TestCheckout(t *testing.T) {
	ctx := t.Context()
	userID := uuid.New()

	t.Run("Success - Priced From Persisted Cart", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, false)
		deps.allow(userID)
		deps.carts.On("GetUserCart", mock.Anything, userID).Return(userWithCart(userID, 3, mug(2), lamp(1)), nil).Once()
		deps.gateway.On("CreateOrder", mock.Anything, &models.GatewayOrderRequest{
			Amount:      4550,
			Currency:    "INR",
			Receipt:     "receipt_1700000000123",
			AutoCapture: true,
			Notes:       map[string]string{"user_id": userID.String()},
		}).Return(&models.GatewayOrder{ID: "order_abc", Amount: 4550, Currency: "INR", Status: "created"}, nil).Once()
		deps.publisher.On("PublishOrderCreated", mock.Anything, mock.MatchedBy(func(e *models.CheckoutEvent) bool {
			return e.Event == "checkout.order_created" &&
				e.OrderID == "order_abc" &&
				e.UserID == userID.String() &&
				e.Amount == 4550 &&
				e.Receipt == "receipt_1700000000123" &&
				e.CreatedAt == fixedNow.Unix()
		})).Return(nil).Once()

		// client claims a lower price; the cart wins
		req := &models.CheckoutRequest{Items: []models.CheckoutLine{{ID: "mug", Price: 1, Quantity: 2}}}

		// Act
		resp, err := svc.Checkout(ctx, userID, req)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, &models.CheckoutResponse{
			Success:  true,
			OrderID:  "order_abc",
			Amount:   4550,
			Currency: "INR",
			Key:      "rzp_test_key",
		}, resp)
	})

	t.Run("Success - Trusted Client Prices", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, true)
		deps.allow(userID)
		deps.gateway.On("CreateOrder", mock.Anything, mock.MatchedBy(func(r *models.GatewayOrderRequest) bool {
			return r.Amount == 20000
		})).Return(&models.GatewayOrder{ID: "order_xyz", Amount: 20000, Currency: "INR"}, nil).Once()
		deps.publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil).Once()

		// Act
		resp, err := svc.Checkout(ctx, userID, &models.CheckoutRequest{
			Items: []models.CheckoutLine{{Price: 100, Quantity: 2}},
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(20000), resp.Amount)
		assert.Equal(t, "order_xyz", resp.OrderID)
		deps.carts.AssertNotCalled(t, "GetUserCart", mock.Anything, mock.Anything)
	})

	t.Run("Success - Publish Failure Is Logged Only", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, false)
		deps.allow(userID)
		deps.carts.On("GetUserCart", mock.Anything, userID).Return(userWithCart(userID, 1, mug(1)), nil).Once()
		deps.gateway.On("CreateOrder", mock.Anything, mock.Anything).
			Return(&models.GatewayOrder{ID: "order_1"}, nil).Once()
		deps.publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(errors.New("channel closed")).Once()

		// Act
		resp, err := svc.Checkout(ctx, userID, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(1000), resp.Amount, "computed amount used when the gateway omits it")
		assert.Equal(t, "INR", resp.Currency)
	})

	t.Run("Success - Limiter Outage Fails Open", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, false)
		deps.limiter.On("Allow", mock.Anything, userID.String()).Return(false, 0, 0, errors.New("redis down")).Once()
		deps.carts.On("GetUserCart", mock.Anything, userID).Return(userWithCart(userID, 1, mug(1)), nil).Once()
		deps.gateway.On("CreateOrder", mock.Anything, mock.Anything).
			Return(&models.GatewayOrder{ID: "order_2", Amount: 1000, Currency: "INR"}, nil).Once()
		deps.publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil).Once()

		// Act
		resp, err := svc.Checkout(ctx, userID, nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "order_2", resp.OrderID)
	})

	t.Run("Failure - Rate Limited", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, false)
		deps.limiter.On("Allow", mock.Anything, userID.String()).Return(false, 0, 42, nil).Once()

		// Act
		resp, err := svc.Checkout(ctx, userID, nil)

		// Assert
		assert.Nil(t, resp)
		assertAppError(t, err, appErrors.ErrCodeTooManyRequests, http.StatusTooManyRequests, "")

		appErr, _ := appErrors.IsAppError(err)
		assert.Equal(t, "Retry after 42 seconds", appErr.Detail)
	})

	t.Run("Failure - Empty Cart", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, false)
		deps.allow(userID)
		deps.carts.On("GetUserCart", mock.Anything, userID).Return(userWithCart(userID, 1), nil).Once()

		// Act
		_, err := svc.Checkout(ctx, userID, &models.CheckoutRequest{})

		// Assert
		assertAppError(t, err, appErrors.ErrCodeBadRequest, http.StatusBadRequest, "Cart is empty")
	})

	t.Run("Failure - Trusted Prices Without Items", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, true)
		deps.allow(userID)

		// Act
		_, err := svc.Checkout(ctx, userID, &models.CheckoutRequest{})

		// Assert
		assertAppError(t, err, appErrors.ErrCodeBadRequest, http.StatusBadRequest, "Cart is empty")
	})

	t.Run("Failure - Zero Amount", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, true)
		deps.allow(userID)

		// Act
		_, err := svc.Checkout(ctx, userID, &models.CheckoutRequest{
			Items: []models.CheckoutLine{{Price: 0, Quantity: 3}},
		})

		// Assert
		assertAppError(t, err, appErrors.ErrCodeBadRequest, http.StatusBadRequest, "Order amount must be greater than zero")
	})

	t.Run("Failure - Amount Does Not Fit", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, true)
		deps.allow(userID)

		// Act
		resp, err := svc.Checkout(ctx, userID, &models.CheckoutRequest{
			Items: []models.CheckoutLine{{Price: 1e18, Quantity: 1}},
		})

		// Assert
		assert.Nil(t, resp)
		assertAppError(t, err, appErrors.ErrCodeBadRequest, http.StatusBadRequest, "Order amount exceeds the allowed maximum")
		deps.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Amount Over Cap", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, false)
		deps.allow(userID)
		deps.carts.On("GetUserCart", mock.Anything, userID).
			Return(userWithCart(userID, 1, models.CartItem{ID: "yacht", Price: 10000000, Quantity: 10001}), nil).Once()

		// Act
		resp, err := svc.Checkout(ctx, userID, nil)

		// Assert
		assert.Nil(t, resp)
		assertAppError(t, err, appErrors.ErrCodeBadRequest, http.StatusBadRequest, "Order amount exceeds the allowed maximum")
		deps.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Unknown User", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, false)
		deps.allow(userID)
		deps.carts.On("GetUserCart", mock.Anything, userID).Return(nil, repository.ErrUserNotFound).Once()

		// Act
		_, err := svc.Checkout(ctx, userID, nil)

		// Assert
		assertAppError(t, err, appErrors.ErrCodeUnauthorized, http.StatusUnauthorized, "You are not authorized.")
	})

	t.Run("Failure - Cart Load Error", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, false)
		deps.allow(userID)
		deps.carts.On("GetUserCart", mock.Anything, userID).Return(nil, errors.New("timeout")).Once()

		// Act
		_, err := svc.Checkout(ctx, userID, nil)

		// Assert
		assertAppError(t, err, appErrors.ErrCodeInternal, http.StatusInternalServerError, "")
	})

	t.Run("Failure - Gateway Error Not Leaked", func(t *testing.T) {
		// Arrange
		svc, deps := setupCheckoutService(t, false)
		deps.allow(userID)
		deps.carts.On("GetUserCart", mock.Anything, userID).Return(userWithCart(userID, 1, mug(1)), nil).Once()
		gatewayErr := errors.New("Authentication failed: key_secret rzp_live_xxx invalid")
		deps.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, gatewayErr).Once()

		// Act
		resp, err := svc.Checkout(ctx, userID, nil)

		// Assert
		assert.Nil(t, resp)
		assertAppError(t, err, appErrors.ErrCodeThirdPartyError, http.StatusInternalServerError, "Failed to create payment order")
		assert.NotContains(t, err.Error(), "key_secret")
		assert.ErrorIs(t, err, gatewayErr)
		deps.publisher.AssertNotCalled(t, "PublishOrderCreated", mock.Anything, mock.Anything)
	})
}
