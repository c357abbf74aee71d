package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User is the slice of the account record this service reads and writes. The cart is embedded
// in the record; CartVersion is bumped on every successful cart write.
type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Cart        []CartItem `json:"cart"`
	CartVersion int64      `json:"-"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Claims is issued by the account service; only the identity is consumed here.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}
