package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/cart-service/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/cart-service/internal/errors"
	"github.com/aaravmahajanofficial/cart-service/internal/models"
	"github.com/aaravmahajanofficial/cart-service/internal/services/mocks"
	"github.com/aaravmahajanofficial/cart-service/internal/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupCheckoutTest(t *testing.T) (*mocks.CheckoutService, *handlers.CheckoutHandler) {
	t.Helper()

	mockCheckoutService := new(mocks.CheckoutService)
	t.Cleanup(func() { mockCheckoutService.AssertExpectations(t) })

	return mockCheckoutService, handlers.NewCheckoutHandler(mockCheckoutService)
}

func TestCheckout(t *testing.T) {
	userID := uuid.New()
	order := &models.CheckoutResponse{
		Success:  true,
		OrderID:  "order_9A33XWu170gUtm",
		Amount:   20000,
		Currency: "INR",
		Key:      "rzp_test_key",
	}

	t.Run("Success - Flat Response", func(t *testing.T) {
		// Arrange
		mockCheckoutService, handler := setupCheckoutTest(t)
		mockCheckoutService.On("Checkout", mock.Anything, userID, &models.CheckoutRequest{
			Items: []models.CheckoutLine{{ID: "mug", Price: 100, Quantity: 2}},
		}).Return(order, nil).Once()

		body := []byte(`{"items":[{"id":"mug","price":100,"quantity":2}]}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body), userID, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Checkout()(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"success":true,"orderId":"order_9A33XWu170gUtm","amount":20000,"currency":"INR","key":"rzp_test_key"}`, rr.Body.String())
	})

	t.Run("Success - Empty Body", func(t *testing.T) {
		// Arrange
		mockCheckoutService, handler := setupCheckoutTest(t)
		mockCheckoutService.On("Checkout", mock.Anything, userID, &models.CheckoutRequest{}).Return(order, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/checkout", http.NoBody, userID, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Checkout()(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Invalid Quantity", func(t *testing.T) {
		// Arrange
		_, handler := setupCheckoutTest(t)
		body := []byte(`{"items":[{"id":"mug","price":100,"quantity":0}]}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body), userID, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Checkout()(rr, req)

		// Assert
		assertFailure(t, rr, http.StatusBadRequest, appErrors.ErrCodeValidation, "")
	})

	t.Run("Failure - Line Above Limits", func(t *testing.T) {
		// Arrange
		_, handler := setupCheckoutTest(t)
		body := []byte(`{"items":[{"id":"mug","price":1e18,"quantity":10001}]}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body), userID, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Checkout()(rr, req)

		// Assert
		assertFailure(t, rr, http.StatusBadRequest, appErrors.ErrCodeValidation, "Validation failed")

		resp := testutils.DecodeAPIResponse(t, rr)
		assert.Contains(t, resp.Error.Details, "Field Price must be less than or equal to 10000000")
		assert.Contains(t, resp.Error.Details, "Field Quantity must be less than or equal to 10000")
	})

	t.Run("Failure - Rate Limited", func(t *testing.T) {
		// Arrange
		mockCheckoutService, handler := setupCheckoutTest(t)
		mockCheckoutService.On("Checkout", mock.Anything, userID, mock.Anything).
			Return(nil, appErrors.TooManyRequestsError("Too many checkout attempts, please try again later.")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/checkout", http.NoBody, userID, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Checkout()(rr, req)

		// Assert
		assertFailure(t, rr, http.StatusTooManyRequests, appErrors.ErrCodeTooManyRequests, "")
	})

	t.Run("Failure - Gateway Error", func(t *testing.T) {
		// Arrange
		mockCheckoutService, handler := setupCheckoutTest(t)
		mockCheckoutService.On("Checkout", mock.Anything, userID, mock.Anything).
			Return(nil, appErrors.ThirdPartyError("Failed to create payment order").WithError(assert.AnError)).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/checkout", http.NoBody, userID, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Checkout()(rr, req)

		// Assert
		assertFailure(t, rr, http.StatusInternalServerError, appErrors.ErrCodeThirdPartyError, "Failed to create payment order")
	})

	t.Run("Failure - Unauthorized", func(t *testing.T) {
		// Arrange
		_, handler := setupCheckoutTest(t)
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/checkout", http.NoBody, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Checkout()(rr, req)

		// Assert
		assertFailure(t, rr, http.StatusUnauthorized, appErrors.ErrCodeUnauthorized, "You are not authorized.")
	})
}
