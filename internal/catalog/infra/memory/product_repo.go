// Package memory keeps the catalog in process memory. It doubles as the
// inventory store for the in-memory cart store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dwikikusuma/shoping-live/internal/catalog/app"
	"github.com/dwikikusuma/shoping-live/internal/catalog/domain"
	"github.com/google/uuid"
)

type ProductRepo struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	now      func() time.Time
}

func NewProductRepo() *ProductRepo {
	return &ProductRepo{
		products: make(map[string]domain.Product),
		now:      time.Now,
	}
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := r.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.products[p.ID] = p
	return p, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, app.ErrNotFound
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	r.mu.RLock()
	matched := make([]domain.Product, 0, len(r.products))
	q := strings.ToLower(query)
	for _, p := range r.products {
		if cursor != "" && p.ID <= cursor {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		matched = append(matched, p)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	if len(matched) <= limit {
		return matched, "", nil
	}
	out := matched[:limit]
	return out, out[len(out)-1].ID, nil
}

// AdjustStock adds delta to the remaining quantity of a product as one
// conditional update. A result below zero is refused with
// app.ErrInsufficientStock and leaves the product untouched.
func (r *ProductRepo) AdjustStock(ctx context.Context, id string, delta int32) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, app.ErrNotFound
	}
	next := int64(p.Quantity) + int64(delta)
	if next < 0 {
		return domain.Product{}, app.ErrInsufficientStock
	}
	p.Quantity = int32(next)
	p.UpdatedAt = r.now().UTC()
	r.products[id] = p
	return p, nil
}
