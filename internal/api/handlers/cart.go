package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/cart-service/internal/api/middleware"
	"github.com/aaravmahajanofficial/cart-service/internal/errors"
	"github.com/aaravmahajanofficial/cart-service/internal/models"
	service "github.com/aaravmahajanofficial/cart-service/internal/services"
	"github.com/aaravmahajanofficial/cart-service/internal/utils"
	"github.com/aaravmahajanofficial/cart-service/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	MsgAdded       = "Added to cart"
	MsgRemoved     = "Item removed from cart."
	MsgIncremented = "Quantity updated."
	MsgDecremented = "Quantity updated"
	MsgCleared     = "Cart cleared."
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

// userFromRequest resolves the caller, writing a 401 when the request carries no identity.
func userFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, *slog.Logger, bool) {
	logger := middleware.LoggerFromContext(r.Context())

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		logger.Warn("Request without user claims")
		response.Error(w, errors.UnauthorizedError(middleware.NotAuthorizedMessage))

		return uuid.Nil, logger, false
	}

	return claims.UserID, logger, true
}

func itemIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		response.Error(w, errors.BadRequestError("Item id is required"))

		return "", false
	}

	return id, true
}

// GetCart godoc
//
//	@Summary		Get the current user's cart
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	response.APIResponse{data=models.Cart}	"Cart line items in insertion order"
//	@Failure		401	{object}	response.ErrorResponse					"Not authorized"
//	@Failure		500	{object}	response.ErrorResponse					"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, logger, ok := userFromRequest(w, r)
		if !ok {
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), userID)
		if err != nil {
			logger.Error("Failed to get cart", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// AddItem godoc
//
//	@Summary		Add a product to the cart
//	@Description	Appends the product with quantity 1. A product already in the cart is rejected.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product snapshot"
//	@Success		200		{object}	response.APIResponse	"Added to cart"
//	@Failure		400		{object}	response.ErrorResponse	"Invalid body"
//	@Failure		401		{object}	response.ErrorResponse	"Not authorized"
//	@Failure		409		{object}	response.ErrorResponse	"Already in cart"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, logger, ok := userFromRequest(w, r)
		if !ok {
			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add to cart input")

			return
		}

		if _, err := h.cartService.AddItem(r.Context(), userID, &req); err != nil {
			logger.Warn("Failed to add item", slog.String("itemId", req.ID), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Item added to cart", slog.String("itemId", req.ID))
		response.Message(w, http.StatusOK, MsgAdded)
	}
}

// RemoveItem godoc
//
//	@Summary	Remove a product from the cart
//	@Tags		Cart
//	@Produce	json
//	@Param		id	path		string					true	"Product id"
//	@Success	200	{object}	response.APIResponse	"Item removed from cart."
//	@Failure	401	{object}	response.ErrorResponse	"Not authorized"
//	@Failure	404	{object}	response.ErrorResponse	"Item not found"
//	@Failure	500	{object}	response.ErrorResponse	"Internal server error"
//	@Security	BearerAuth
//	@Router		/cart/items/{id} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return h.itemMutation("remove", MsgRemoved, h.cartService.RemoveItem)
}

// IncrementQuantity godoc
//
//	@Summary	Increase a line item's quantity by one
//	@Tags		Cart
//	@Produce	json
//	@Param		id	path		string					true	"Product id"
//	@Success	200	{object}	response.APIResponse	"Quantity updated."
//	@Failure	401	{object}	response.ErrorResponse	"Not authorized"
//	@Failure	404	{object}	response.ErrorResponse	"Item not found"
//	@Failure	500	{object}	response.ErrorResponse	"Internal server error"
//	@Security	BearerAuth
//	@Router		/cart/items/{id}/increment [patch]
func (h *CartHandler) IncrementQuantity() http.HandlerFunc {
	return h.itemMutation("increment", MsgIncremented, h.cartService.IncrementQuantity)
}

// DecrementQuantity godoc
//
//	@Summary		Decrease a line item's quantity by one
//	@Description	Quantity never drops below 1; use remove to drop the line.
//	@Tags			Cart
//	@Produce		json
//	@Param			id	path		string					true	"Product id"
//	@Success		200	{object}	response.APIResponse	"Quantity updated"
//	@Failure		400	{object}	response.ErrorResponse	"Quantity already at 1"
//	@Failure		401	{object}	response.ErrorResponse	"Not authorized"
//	@Failure		404	{object}	response.ErrorResponse	"Item not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/items/{id}/decrement [patch]
func (h *CartHandler) DecrementQuantity() http.HandlerFunc {
	return h.itemMutation("decrement", MsgDecremented, h.cartService.DecrementQuantity)
}

// ClearCart godoc
//
//	@Summary	Empty the cart
//	@Tags		Cart
//	@Produce	json
//	@Success	200	{object}	response.APIResponse	"Cart cleared."
//	@Failure	401	{object}	response.ErrorResponse	"Not authorized"
//	@Failure	500	{object}	response.ErrorResponse	"Internal server error"
//	@Security	BearerAuth
//	@Router		/cart [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, logger, ok := userFromRequest(w, r)
		if !ok {
			return
		}

		if _, err := h.cartService.ClearCart(r.Context(), userID); err != nil {
			logger.Error("Failed to clear cart", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Cart cleared")
		response.Message(w, http.StatusOK, MsgCleared)
	}
}

type itemMutationFunc func(ctx context.Context, userID uuid.UUID, itemID string) (*models.Cart, error)

func (h *CartHandler) itemMutation(op, successMessage string, apply itemMutationFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, logger, ok := userFromRequest(w, r)
		if !ok {
			return
		}

		itemID, ok := itemIDFromPath(w, r)
		if !ok {
			return
		}

		logger = logger.With(slog.String("operation", op), slog.String("itemId", itemID))

		if _, err := apply(r.Context(), userID, itemID); err != nil {
			logger.Warn("Cart mutation failed", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Cart updated")
		response.Message(w, http.StatusOK, successMessage)
	}
}
