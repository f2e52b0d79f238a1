// Package memory is an in-process cart store. Units of work hold a lock on the
// user whose cart they touch, so different users never wait on each other.
// Stock takes go through the catalog repository's own conditional update and
// are undone if the unit fails; stock releases are applied at commit.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	catalogapp "github.com/dwikikusuma/shoping-live/internal/catalog/app"
	catalogdomain "github.com/dwikikusuma/shoping-live/internal/catalog/domain"

	"github.com/dwikikusuma/shoping-live/internal/cart/app"
	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
	"github.com/google/uuid"
)

// Inventory is the catalog side of the store.
type Inventory interface {
	Get(ctx context.Context, id string) (catalogdomain.Product, error)
	AdjustStock(ctx context.Context, id string, delta int32) (catalogdomain.Product, error)
}

type Store struct {
	// mu guards the maps only. Cart contents belong to whoever holds the
	// owner's entry in users.
	mu        sync.Mutex
	carts     map[string]*domain.Cart // by user id
	owners    map[string]string       // cart id -> user id
	users     map[string]*sync.Mutex
	inventory Inventory
	now       func() time.Time
}

func NewStore(inventory Inventory) *Store {
	return &Store{
		carts:     make(map[string]*domain.Cart),
		owners:    make(map[string]string),
		users:     make(map[string]*sync.Mutex),
		inventory: inventory,
		now:       time.Now,
	}
}

func (s *Store) Atomically(ctx context.Context, fn func(tx app.Tx) error) error {
	t := &tx{s: s, held: make(map[string]*sync.Mutex), release: make(map[string]int32)}
	defer t.unlock()

	if err := fn(t); err != nil {
		t.rollback(ctx)
		return err
	}
	t.commit(ctx)
	return nil
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.users[userID]
	if !ok {
		m = &sync.Mutex{}
		s.users[userID] = m
	}
	return m
}

func (s *Store) lookup(userID string) (*domain.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	return c, ok
}

func (s *Store) owner(cartID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.owners[cartID]
	return userID, ok
}

type tx struct {
	s       *Store
	held    map[string]*sync.Mutex
	undo    []func(ctx context.Context)
	release map[string]int32 // stock handed back at commit, by product id
	order   []string
}

func (t *tx) lock(userID string) {
	if _, ok := t.held[userID]; ok {
		return
	}
	m := t.s.userLock(userID)
	m.Lock()
	t.held[userID] = m
}

func (t *tx) unlock() {
	for _, m := range t.held {
		m.Unlock()
	}
	t.held = nil
}

func (t *tx) rollback(ctx context.Context) {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i](ctx)
	}
	t.undo = nil
	t.release = nil
}

// commit hands released stock back. Each product was checked when the
// release was recorded, and increments are unconditional.
func (t *tx) commit(ctx context.Context) {
	for _, id := range t.order {
		_, _ = t.s.inventory.AdjustStock(ctx, id, t.release[id])
	}
}

// snapshot records how to restore userID's cart as it is right now.
func (t *tx) snapshot(userID string) {
	prev, existed := t.s.lookup(userID)
	var saved domain.Cart
	if existed {
		saved = copyCart(*prev)
	}
	t.undo = append(t.undo, func(context.Context) {
		t.s.mu.Lock()
		defer t.s.mu.Unlock()
		if !existed {
			if c, ok := t.s.carts[userID]; ok {
				delete(t.s.owners, c.ID)
			}
			delete(t.s.carts, userID)
			return
		}
		c := saved
		t.s.carts[userID] = &c
	})
}

func (t *tx) FindCart(ctx context.Context, userID string) (domain.Cart, error) {
	t.lock(userID)
	c, ok := t.s.lookup(userID)
	if !ok {
		return domain.Cart{}, app.ErrCartNotFound
	}
	return copyCart(*c), nil
}

func (t *tx) GetOrCreateCart(ctx context.Context, userID string) (domain.Cart, error) {
	t.lock(userID)
	if c, ok := t.s.lookup(userID); ok {
		return copyCart(*c), nil
	}

	t.snapshot(userID)
	now := t.s.now().UTC()
	c := &domain.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.s.mu.Lock()
	t.s.carts[userID] = c
	t.s.owners[c.ID] = userID
	t.s.mu.Unlock()
	return copyCart(*c), nil
}

func (t *tx) cart(cartID string) (*domain.Cart, error) {
	userID, ok := t.s.owner(cartID)
	if !ok {
		return nil, app.ErrCartNotFound
	}
	t.lock(userID)
	c, ok := t.s.lookup(userID)
	if !ok {
		return nil, app.ErrCartNotFound
	}
	return c, nil
}

func (t *tx) touch(c *domain.Cart) {
	c.Revision++
	c.UpdatedAt = t.s.now().UTC()
}

func (t *tx) FindItem(ctx context.Context, cartID, productID string) (domain.CartItem, error) {
	c, err := t.cart(cartID)
	if err != nil {
		return domain.CartItem{}, err
	}
	it, ok := c.Item(productID)
	if !ok {
		return domain.CartItem{}, app.ErrItemNotFound
	}
	return it, nil
}

func (t *tx) IncrementItem(ctx context.Context, cartID, productID string, qty int32) error {
	c, err := t.cart(cartID)
	if err != nil {
		return err
	}
	t.snapshot(c.UserID)

	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			t.touch(c)
			return nil
		}
	}
	c.Items = append(c.Items, domain.CartItem{ProductID: productID, Quantity: qty})
	t.touch(c)
	return nil
}

func (t *tx) SetItemQuantity(ctx context.Context, cartID, productID string, qty int32) error {
	c, err := t.cart(cartID)
	if err != nil {
		return err
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			t.snapshot(c.UserID)
			c.Items[i].Quantity = qty
			t.touch(c)
			return nil
		}
	}
	return app.ErrItemNotFound
}

func (t *tx) RemoveItem(ctx context.Context, cartID, productID string) error {
	c, err := t.cart(cartID)
	if err != nil {
		return err
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			t.snapshot(c.UserID)
			c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
			t.touch(c)
			return nil
		}
	}
	return app.ErrItemNotFound
}

// AdjustStock takes stock right away and undoes the take on rollback.
// Releases wait for commit, so a rollback never has to take stock back from
// another user who reserved it in the meantime.
func (t *tx) AdjustStock(ctx context.Context, productID string, delta int32) error {
	if delta > 0 {
		if _, err := t.s.inventory.Get(ctx, productID); err != nil {
			return stockErr(err)
		}
		if _, ok := t.release[productID]; !ok {
			t.order = append(t.order, productID)
		}
		t.release[productID] += delta
		return nil
	}

	if _, err := t.s.inventory.AdjustStock(ctx, productID, delta); err != nil {
		return stockErr(err)
	}
	t.undo = append(t.undo, func(ctx context.Context) {
		_, _ = t.s.inventory.AdjustStock(ctx, productID, -delta)
	})
	return nil
}

func stockErr(err error) error {
	switch {
	case errors.Is(err, catalogapp.ErrNotFound):
		return app.ErrProductNotFound
	case errors.Is(err, catalogapp.ErrInsufficientStock):
		return app.ErrOutOfStock
	default:
		return err
	}
}

// Products reports stock as it will stand once the unit commits.
func (t *tx) Products(ctx context.Context, ids []string) (map[string]domain.ProductInfo, error) {
	out := make(map[string]domain.ProductInfo, len(ids))
	for _, id := range ids {
		p, err := t.s.inventory.Get(ctx, id)
		if errors.Is(err, catalogapp.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = domain.ProductInfo{
			ID:    p.ID,
			Name:  p.Name,
			Image: p.Image,
			Price: domain.Money{Currency: p.Price.Currency, Amount: p.Price.Amount},
			Stock: p.Quantity + t.release[id],
		}
	}
	return out, nil
}

func copyCart(c domain.Cart) domain.Cart {
	items := make([]domain.CartItem, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}
