package service

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/cart-service/internal/api/middleware"
	"github.com/aaravmahajanofficial/cart-service/internal/config"
	"github.com/aaravmahajanofficial/cart-service/internal/errors"
	"github.com/aaravmahajanofficial/cart-service/internal/events"
	"github.com/aaravmahajanofficial/cart-service/internal/metrics"
	"github.com/aaravmahajanofficial/cart-service/internal/models"
	repository "github.com/aaravmahajanofficial/cart-service/internal/repositories"
	"github.com/aaravmahajanofficial/cart-service/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MsgCartEmpty          = "Cart is empty"
	MsgInvalidAmount      = "Order amount must be greater than zero"
	MsgAmountTooLarge     = "Order amount exceeds the allowed maximum"
	MsgTooManyCheckouts   = "Too many checkout attempts, please try again later."
	MsgGatewayOrderFailed = "Failed to create payment order"
)

var (
	minorUnitsPerMajor = decimal.NewFromInt(100)
	maxMinorUnits      = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits      = decimal.NewFromInt(math.MinInt64)
)

// PaymentGateway creates an order the client-side payment widget can complete.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req *models.GatewayOrderRequest) (*models.GatewayOrder, error)
	Provider() string
	PublicKey() string
}

type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID, req *models.CheckoutRequest) (*models.CheckoutResponse, error)
}

type checkoutService struct {
	carts     repository.CartRepository
	limiter   repository.RateLimitRepository
	gateway   PaymentGateway
	publisher events.Publisher
	cfg       config.CheckoutConfig
	now       func() time.Time
}

func NewCheckoutService(
	carts repository.CartRepository,
	limiter repository.RateLimitRepository,
	gateway PaymentGateway,
	publisher events.Publisher,
	cfg config.CheckoutConfig,
) CheckoutService {
	return &checkoutService{
		carts:     carts,
		limiter:   limiter,
		gateway:   gateway,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Total sums price times quantity over the lines in exact decimal arithmetic.
func Total(lines []models.CheckoutLine) decimal.Decimal {
	total := decimal.Zero

	for _, line := range lines {
		total = total.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return total
}

// MinorUnits converts a major-unit total to the gateway's integer amount, rounding half away
// from zero. ok is false when the amount does not fit in an int64.
func MinorUnits(total decimal.Decimal) (amount int64, ok bool) {
	minor := total.Mul(minorUnitsPerMajor).Round(0)
	if minor.GreaterThan(maxMinorUnits) || minor.LessThan(minMinorUnits) {
		return 0, false
	}

	return minor.IntPart(), true
}

func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {
	logger := middleware.LoggerFromContext(ctx).With(slog.String("provider", s.gateway.Provider()))

	if err := s.checkRateLimit(ctx, userID); err != nil {
		return nil, err
	}

	lines, err := s.resolveLines(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	amount, ok := MinorUnits(Total(lines))
	if !ok || (s.cfg.MaxOrderAmount > 0 && amount > s.cfg.MaxOrderAmount) {
		logger.Warn("Checkout amount over limit", slog.Bool("fitsInt64", ok), slog.Int64("maxAmount", s.cfg.MaxOrderAmount))

		return nil, errors.BadRequestError(MsgAmountTooLarge)
	}

	if amount <= 0 {
		return nil, errors.BadRequestError(MsgInvalidAmount)
	}

	receipt := s.cfg.ReceiptPrefix + strconv.FormatInt(s.now().UnixMilli(), 10)

	order, err := s.gateway.CreateOrder(ctx, &models.GatewayOrderRequest{
		Amount:      amount,
		Currency:    s.cfg.Currency,
		Receipt:     receipt,
		AutoCapture: true,
		Notes:       map[string]string{"user_id": userID.String()},
	})
	metrics.RecordCheckoutOrder(s.gateway.Provider(), err)

	if err != nil {
		logger.Error("Gateway order creation failed", slog.Int64("amount", amount), slog.Any("error", err))

		return nil, errors.ThirdPartyError(MsgGatewayOrderFailed).WithError(err)
	}

	resp := &models.CheckoutResponse{
		Success:  true,
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Key:      s.gateway.PublicKey(),
	}

	if resp.Amount == 0 {
		resp.Amount = amount
	}

	if resp.Currency == "" {
		resp.Currency = s.cfg.Currency
	}

	logger.Info("Checkout order created", slog.String("orderId", order.ID), slog.Int64("amount", resp.Amount))

	s.publish(ctx, userID, resp, receipt)

	return resp, nil
}

// A limiter outage lets the attempt through; checkout availability outranks throttling.
func (s *checkoutService) checkRateLimit(ctx context.Context, userID uuid.UUID) error {
	allowed, _, retryAfter, err := s.limiter.Allow(ctx, userID.String())
	if err != nil {
		middleware.LoggerFromContext(ctx).Warn("Checkout rate limit check failed", slog.Any("error", err))

		return nil
	}

	if !allowed {
		return errors.TooManyRequestsError(MsgTooManyCheckouts).
			WithDetail(fmt.Sprintf("Retry after %d seconds", retryAfter))
	}

	return nil
}

func (s *checkoutService) resolveLines(ctx context.Context, userID uuid.UUID, req *models.CheckoutRequest) ([]models.CheckoutLine, error) {
	var requested []models.CheckoutLine
	if req != nil {
		requested = req.Items
	}

	if s.cfg.TrustClientPrices {
		if len(requested) == 0 {
			return nil, errors.BadRequestError(MsgCartEmpty)
		}

		return requested, nil
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user, err := s.carts.GetUserCart(dbCtx, userID)
	if err != nil {
		if stdErrors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.UnauthorizedError(middleware.NotAuthorizedMessage).WithError(err)
		}

		return nil, errors.InternalError("Failed to load cart").WithError(err)
	}

	if len(user.Cart) == 0 {
		return nil, errors.BadRequestError(MsgCartEmpty)
	}

	lines := make([]models.CheckoutLine, 0, len(user.Cart))
	for _, item := range user.Cart {
		lines = append(lines, models.CheckoutLine{ID: item.ID, Price: item.Price, Quantity: item.Quantity})
	}

	if len(requested) > 0 {
		if clientTotal, serverTotal := Total(requested), Total(lines); !clientTotal.Equal(serverTotal) {
			middleware.LoggerFromContext(ctx).Warn("Client checkout total differs from cart total",
				slog.String("clientTotal", clientTotal.String()),
				slog.String("cartTotal", serverTotal.String()))
		}
	}

	return lines, nil
}

func (s *checkoutService) publish(ctx context.Context, userID uuid.UUID, resp *models.CheckoutResponse, receipt string) {
	event := &models.CheckoutEvent{
		Event:     events.OrderCreatedRoutingKey,
		OrderID:   resp.OrderID,
		UserID:    userID.String(),
		Amount:    resp.Amount,
		Currency:  resp.Currency,
		Provider:  s.gateway.Provider(),
		Receipt:   receipt,
		CreatedAt: s.now().Unix(),
	}

	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		middleware.LoggerFromContext(ctx).Error("Failed to publish checkout event",
			slog.String("orderId", resp.OrderID), slog.Any("error", err))
	}
}
