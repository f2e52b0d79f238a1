package app

import (
	"context"

	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
)

// Store runs reservation units of work.
type Store interface {
	// Atomically runs fn as one unit of work. Writes made through tx become
	// visible together, or not at all when fn returns an error.
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the view of the cart and inventory stores inside one unit of work.
type Tx interface {
	FindCart(ctx context.Context, userID string) (domain.Cart, error)
	GetOrCreateCart(ctx context.Context, userID string) (domain.Cart, error)

	// FindItem returns the item and holds it until the unit of work ends.
	FindItem(ctx context.Context, cartID, productID string) (domain.CartItem, error)
	IncrementItem(ctx context.Context, cartID, productID string, qty int32) error
	SetItemQuantity(ctx context.Context, cartID, productID string, qty int32) error
	RemoveItem(ctx context.Context, cartID, productID string) error

	// AdjustStock adds delta to a product's remaining stock as a single
	// conditional update. It fails with ErrOutOfStock rather than going below
	// zero and with ErrProductNotFound for unknown products.
	AdjustStock(ctx context.Context, productID string, delta int32) error
	Products(ctx context.Context, ids []string) (map[string]domain.ProductInfo, error)
}

// Notifier receives every committed cart so it can be pushed to the owner's
// live connections.
type Notifier interface {
	CartUpdated(userID string, cart domain.ResolvedCart)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ReservationEvent) error
}
