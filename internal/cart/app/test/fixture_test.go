package app_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dwikikusuma/shoping-live/internal/cart/app"
	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
	cartgorm "github.com/dwikikusuma/shoping-live/internal/cart/infra/gormstore"
	cartmem "github.com/dwikikusuma/shoping-live/internal/cart/infra/memory"
	catalogapp "github.com/dwikikusuma/shoping-live/internal/catalog/app"
	catalogdomain "github.com/dwikikusuma/shoping-live/internal/catalog/domain"
	cataloggorm "github.com/dwikikusuma/shoping-live/internal/catalog/infra/gormstore"
	catalogmem "github.com/dwikikusuma/shoping-live/internal/catalog/infra/memory"
	"github.com/dwikikusuma/shoping-live/pkg/database/dbtest"
	"github.com/dwikikusuma/shoping-live/pkg/logger"
)

type recorder struct {
	mu    sync.Mutex
	carts map[string][]domain.ResolvedCart
}

func (r *recorder) CartUpdated(userID string, cart domain.ResolvedCart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.carts == nil {
		r.carts = make(map[string][]domain.ResolvedCart)
	}
	r.carts[userID] = append(r.carts[userID], cart)
}

func (r *recorder) count(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts[userID])
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.carts {
		n += len(c)
	}
	return n
}

type fixture struct {
	svc      *app.Service
	store    app.Store
	products catalogapp.ProductRepo
	notes    *recorder
}

// forEachStore runs fn against the in-memory store and the SQLite-backed gorm store.
func forEachStore(t *testing.T, fn func(t *testing.T, f fixture)) {
	t.Run("memory", func(t *testing.T) {
		products := catalogmem.NewProductRepo()
		notes := &recorder{}
		store := cartmem.NewStore(products)
		svc := app.NewService(store, notes, nil, logger.Discard())
		fn(t, fixture{svc: svc, store: store, products: products, notes: notes})
	})

	t.Run("gorm", func(t *testing.T) {
		db := dbtest.Open(t)
		notes := &recorder{}
		store := cartgorm.NewStore(db)
		svc := app.NewService(store, notes, nil, logger.Discard())
		fn(t, fixture{svc: svc, store: store, products: cataloggorm.NewProductRepo(db), notes: notes})
	})
}

func (f fixture) newProduct(t *testing.T, name string, stock int32) string {
	t.Helper()
	p, err := f.products.Create(context.Background(), catalogdomain.Product{
		Name:     name,
		Price:    catalogdomain.Money{Currency: "USD", Amount: 100},
		Quantity: stock,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p.ID
}

func (f fixture) stock(t *testing.T, productID string) int32 {
	t.Helper()
	p, err := f.products.Get(context.Background(), productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return p.Quantity
}

func (f fixture) reserved(t *testing.T, productID string, users ...string) int32 {
	t.Helper()
	var sum int32
	for _, u := range users {
		cart, err := f.svc.GetCart(context.Background(), u)
		if err != nil {
			t.Fatalf("get cart %s: %v", u, err)
		}
		sum += cart.Quantity(productID)
	}
	return sum
}
