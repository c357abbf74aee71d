package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/cart-service/internal/models"
	"github.com/aaravmahajanofficial/cart-service/internal/utils"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCartVersionConflict = errors.New("cart was modified concurrently")
)

// CartRepository reads and writes the cart embedded in a user record.
type CartRepository interface {
	GetUserCart(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// SaveCart persists user.Cart only if the stored version still equals user.CartVersion.
	SaveCart(ctx context.Context, user *models.User) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) GetUserCart(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, email, name, cart, cart_version, updated_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}

	var cartJSON []byte

	err := r.DB.QueryRowContext(dbCtx, query, userID).Scan(&user.ID, &user.Email, &user.Name, &cartJSON, &user.CartVersion, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("querying user cart: %w", err)
	}

	user.Cart = []models.CartItem{}

	if len(cartJSON) > 0 {
		if err := json.Unmarshal(cartJSON, &user.Cart); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cart items: %w", err)
		}

		// a JSON null column decodes to a nil slice
		if user.Cart == nil {
			user.Cart = []models.CartItem{}
		}
	}

	return user, nil
}

func (r *cartRepository) SaveCart(ctx context.Context, user *models.User) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	items := user.Cart
	if items == nil {
		items = []models.CartItem{}
	}

	cartJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	query := `
		UPDATE users
		SET cart = $1, cart_version = cart_version + 1, updated_at = NOW()
		WHERE id = $2 AND cart_version = $3
		RETURNING cart_version, updated_at
	`

	err = r.DB.QueryRowContext(dbCtx, query, cartJSON, user.ID, user.CartVersion).Scan(&user.CartVersion, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCartVersionConflict
		}

		return fmt.Errorf("failed to update the cart: %w", err)
	}

	return nil
}
