package domain

import "time"

type CartItem struct {
	ProductID string
	Quantity  int32
}

// Cart is the single cart of a user. Items are unique by ProductID and keep
// the order in which they were first added.
type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	// Revision grows by one with every committed change to the cart.
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Cart) Item(productID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

func (c Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
