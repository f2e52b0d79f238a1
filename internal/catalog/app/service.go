package app

import (
	"context"
	"errors"
	"strings"

	"github.com/dwikikusuma/shoping-live/internal/catalog/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	// ErrInsufficientStock is returned by inventory adjustments that would take
	// a product's remaining quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Service struct {
	repo     ProductRepo
	currency string
}

func NewService(repo ProductRepo, currency string) *Service {
	if currency == "" {
		currency = "USD"
	}
	return &Service{
		repo:     repo,
		currency: currency,
	}
}

type NewProduct struct {
	Name     string `json:"name"`
	Image    string `json:"image"`
	Currency string `json:"currency"`
	Price    int64  `json:"price"`
	Quantity int32  `json:"quantity"`
}

func (s *Service) CreateProduct(ctx context.Context, in NewProduct) (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.currency
	}

	if name == "" || in.Price < 0 || in.Quantity < 0 {
		return domain.Product{}, ErrInvalidInput
	}

	p := domain.Product{
		Name:  name,
		Image: strings.TrimSpace(in.Image),
		Price: domain.Money{
			Currency: currency,
			Amount:   in.Price,
		},
		Quantity: in.Quantity,
	}

	product, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}

	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, strings.TrimSpace(query), limit, strings.TrimSpace(cursor))
}

// Seed inserts the demo catalog. It is meant for empty stores; running it twice
// creates duplicates.
func (s *Service) Seed(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(DemoProducts))
	for _, np := range DemoProducts {
		p, err := s.CreateProduct(ctx, np)
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}

var DemoProducts = []NewProduct{
	{Name: "Red T-Shirt", Image: "/images/placeholder.png", Price: 299, Quantity: 10},
	{Name: "Blue Jeans", Image: "/images/placeholder.png", Price: 999, Quantity: 5},
	{Name: "Sneakers", Image: "/images/placeholder.png", Price: 2499, Quantity: 7},
}
