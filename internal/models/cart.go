package models

// CartItem is a single line of a user's cart. Items are unique by ID within a cart and their
// Quantity never drops below 1.
type CartItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Quantity    int     `json:"quantity"`
}

// Cart is the read model of a user's cart. Version is the cart_version it was read at.
type Cart struct {
	Items   []CartItem `json:"items"`
	Version int64      `json:"version,omitempty"`
}

type AddItemRequest struct {
	ID          string  `json:"id"          validate:"required,max=128"`
	Title       string  `json:"title"       validate:"required,max=512"`
	Description string  `json:"description" validate:"max=4096"`
	Image       string  `json:"image"       validate:"omitempty,max=2048"`
	Price       float64 `json:"price"       validate:"gte=0,lte=10000000"`
	Category    string  `json:"category"    validate:"max=128"`
}

// IndexOf returns the position of the line item with the given id, or -1.
func IndexOf(items []CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}

	return -1
}
