package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/cart-service/internal/models"
	service "github.com/aaravmahajanofficial/cart-service/internal/services"
	"github.com/aaravmahajanofficial/cart-service/internal/utils"
	"github.com/aaravmahajanofficial/cart-service/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	validator       *validator.Validate
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, validator: validator.New()}
}

// Checkout godoc
//
//	@Summary		Create a payment gateway order for the cart
//	@Description	Totals the cart, creates an order with the configured gateway and returns what the payment widget needs. The body is optional.
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			checkout	body		models.CheckoutRequest		false	"Client view of the cart"
//	@Success		200			{object}	models.CheckoutResponse		"Gateway order created"
//	@Failure		400			{object}	response.ErrorResponse		"Empty cart or invalid body"
//	@Failure		401			{object}	response.ErrorResponse		"Not authorized"
//	@Failure		429			{object}	response.ErrorResponse		"Too many checkout attempts"
//	@Failure		500			{object}	response.ErrorResponse		"Gateway or internal error"
//	@Security		BearerAuth
//	@Router			/checkout [post]
func (h *CheckoutHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, logger, ok := userFromRequest(w, r)
		if !ok {
			return
		}

		var req models.CheckoutRequest
		if !utils.ParseOptionalAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid checkout input")

			return
		}

		resp, err := h.checkoutService.Checkout(r.Context(), userID, &req)
		if err != nil {
			logger.Error("Checkout failed", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Checkout order created", slog.String("orderId", resp.OrderID), slog.Int64("amount", resp.Amount))

		if err := response.WriteJson(w, http.StatusOK, resp); err != nil {
			logger.Error("Failed to write checkout response", slog.Any("error", err))
		}
	}
}
