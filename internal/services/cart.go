package service

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/cart-service/internal/api/middleware"
	"github.com/aaravmahajanofficial/cart-service/internal/cache"
	"github.com/aaravmahajanofficial/cart-service/internal/errors"
	"github.com/aaravmahajanofficial/cart-service/internal/metrics"
	"github.com/aaravmahajanofficial/cart-service/internal/models"
	repository "github.com/aaravmahajanofficial/cart-service/internal/repositories"
	"github.com/aaravmahajanofficial/cart-service/internal/utils"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const (
	OpAdd       = "add"
	OpRemove    = "remove"
	OpIncrement = "increment"
	OpDecrement = "decrement"
	OpClear     = "clear"
)

const (
	MsgAlreadyInCart   = "Already in cart."
	MsgItemNotFound    = "Item not found."
	MsgQuantityAtFloor = "Quantity should not be less than 1."
	MsgCartConflict    = "Cart was modified concurrently, please retry."
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, itemID string) (*models.Cart, error)
	IncrementQuantity(ctx context.Context, userID uuid.UUID, itemID string) (*models.Cart, error)
	DecrementQuantity(ctx context.Context, userID uuid.UUID, itemID string) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

type cartService struct {
	repo       repository.CartRepository
	cache      cache.Cache
	cacheTTL   time.Duration
	maxRetries int
	policy     *bluemonday.Policy
}

// NewCartService builds the cart service. maxRetries bounds how many times a mutation is
// replayed after losing a cart_version race.
func NewCartService(repo repository.CartRepository, cartCache cache.Cache, cacheTTL time.Duration, maxRetries int) CartService {
	return &cartService{
		repo:       repo,
		cache:      cartCache,
		cacheTTL:   cacheTTL,
		maxRetries: maxRetries,
		policy:     bluemonday.StrictPolicy(),
	}
}

// applyFunc edits a freshly loaded cart. Returning an error aborts the mutation without a write.
type applyFunc func(items []models.CartItem) ([]models.CartItem, error)

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	logger := middleware.LoggerFromContext(ctx)
	key := cache.Key(cache.CartKeyPrefix, userID.String())

	var cached models.Cart

	cacheCtx, cancel := utils.WithCacheTimeout(ctx)
	found, err := s.cache.Get(cacheCtx, key, &cached)
	cancel()

	if err != nil {
		logger.Warn("Cart cache read failed", slog.String("key", key), slog.Any("error", err))
	} else if found {
		return &cached, nil
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart := &models.Cart{Items: user.Cart, Version: user.CartVersion}

	cacheCtx, cancel = utils.WithCacheTimeout(ctx)
	defer cancel()

	// skipped when a mutation committed after this read and cached a newer version
	if _, err := s.cache.Set(cacheCtx, key, cart, cart.Version, s.cacheTTL); err != nil {
		logger.Warn("Cart cache write failed", slog.String("key", key), slog.Any("error", err))
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {
	item := models.CartItem{
		ID:          req.ID,
		Title:       s.policy.Sanitize(req.Title),
		Description: s.policy.Sanitize(req.Description),
		Image:       req.Image,
		Price:       req.Price,
		Category:    s.policy.Sanitize(req.Category),
		Quantity:    1,
	}

	return s.mutate(ctx, OpAdd, userID, func(items []models.CartItem) ([]models.CartItem, error) {
		if models.IndexOf(items, item.ID) >= 0 {
			return nil, errors.DuplicateEntryError(MsgAlreadyInCart)
		}

		return append(items, item), nil
	})
}

func (s *cartService) RemoveItem(ctx context.Context, userID uuid.UUID, itemID string) (*models.Cart, error) {
	return s.mutate(ctx, OpRemove, userID, func(items []models.CartItem) ([]models.CartItem, error) {
		i := models.IndexOf(items, itemID)
		if i < 0 {
			return nil, errors.NotFoundError(MsgItemNotFound)
		}

		return append(items[:i:i], items[i+1:]...), nil
	})
}

func (s *cartService) IncrementQuantity(ctx context.Context, userID uuid.UUID, itemID string) (*models.Cart, error) {
	return s.mutate(ctx, OpIncrement, userID, func(items []models.CartItem) ([]models.CartItem, error) {
		i := models.IndexOf(items, itemID)
		if i < 0 {
			return nil, errors.NotFoundError(MsgItemNotFound)
		}

		items[i].Quantity++

		return items, nil
	})
}

func (s *cartService) DecrementQuantity(ctx context.Context, userID uuid.UUID, itemID string) (*models.Cart, error) {
	return s.mutate(ctx, OpDecrement, userID, func(items []models.CartItem) ([]models.CartItem, error) {
		i := models.IndexOf(items, itemID)
		if i < 0 {
			return nil, errors.NotFoundError(MsgItemNotFound)
		}

		if items[i].Quantity <= 1 {
			return nil, errors.InvalidStateError(MsgQuantityAtFloor)
		}

		items[i].Quantity--

		return items, nil
	})
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.mutate(ctx, OpClear, userID, func([]models.CartItem) ([]models.CartItem, error) {
		return []models.CartItem{}, nil
	})
}

// mutate runs load, apply and a version-checked save. A lost version race replays the whole
// sequence against the fresh cart, at most maxRetries more times.
func (s *cartService) mutate(ctx context.Context, op string, userID uuid.UUID, apply applyFunc) (cart *models.Cart, err error) {
	logger := middleware.LoggerFromContext(ctx).With(slog.String("operation", op))

	defer func() {
		metrics.RecordCartMutation(op, err)
	}()

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		user, err := s.loadUser(ctx, userID)
		if err != nil {
			return nil, err
		}

		items, err := apply(user.Cart)
		if err != nil {
			return nil, err
		}

		user.Cart = items

		dbCtx, cancel := utils.WithDBTimeout(ctx)
		err = s.repo.SaveCart(dbCtx, user)
		cancel()

		if err == nil {
			cart := &models.Cart{Items: items, Version: user.CartVersion}
			s.refresh(ctx, userID, cart)

			return cart, nil
		}

		if !stdErrors.Is(err, repository.ErrCartVersionConflict) {
			logger.Error("Failed to save cart", slog.Any("error", err))

			return nil, errors.InternalError("Failed to update cart").WithError(err)
		}

		metrics.RecordCartConflictRetry(op)
		logger.Warn("Cart version conflict", slog.Int("attempt", attempt+1), slog.Int64("version", user.CartVersion))
	}

	return nil, errors.ConflictError(MsgCartConflict)
}

func (s *cartService) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user, err := s.repo.GetUserCart(dbCtx, userID)
	if err != nil {
		if stdErrors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.UnauthorizedError(middleware.NotAuthorizedMessage).WithError(err)
		}

		middleware.LoggerFromContext(ctx).Error("Failed to load cart", slog.Any("error", err))

		return nil, errors.InternalError("Failed to load cart").WithError(err)
	}

	if user.Cart == nil {
		user.Cart = []models.CartItem{}
	}

	return user, nil
}

// refresh writes the just-saved cart through to the cache. If that fails the entry is dropped
// so an older cached version is not served until it expires.
func (s *cartService) refresh(ctx context.Context, userID uuid.UUID, cart *models.Cart) {
	logger := middleware.LoggerFromContext(ctx)
	key := cache.Key(cache.CartKeyPrefix, userID.String())

	cacheCtx, cancel := utils.WithCacheTimeout(ctx)
	defer cancel()

	_, err := s.cache.Set(cacheCtx, key, cart, cart.Version, s.cacheTTL)
	if err == nil {
		return
	}

	logger.Warn("Cart cache refresh failed", slog.String("key", key), slog.Any("error", err))

	if err := s.cache.Delete(cacheCtx, key); err != nil {
		logger.Warn("Cart cache invalidation failed", slog.String("key", key), slog.Any("error", err))
	}
}
