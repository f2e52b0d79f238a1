package app

import (
	"context"
	"testing"

	"github.com/dwikikusuma/shoping-live/internal/catalog/domain"
)

type fakeRepo struct {
	created []domain.Product
	limit   int
}

func (f *fakeRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	f.created = append(f.created, p)
	return p, nil
}
func (f *fakeRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	return domain.Product{}, nil
}
func (f *fakeRepo) List(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	f.limit = limit
	return nil, "", nil
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(&fakeRepo{}, "USD")

	t.Run("empty name -> invalid", func(t *testing.T) {
		_, err := svc.CreateProduct(context.Background(), NewProduct{Name: "   ", Price: 100})
		if err != ErrInvalidInput {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("negative price -> invalid", func(t *testing.T) {
		_, err := svc.CreateProduct(context.Background(), NewProduct{Name: "Keyboard", Price: -1})
		if err != ErrInvalidInput {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("negative quantity -> invalid", func(t *testing.T) {
		_, err := svc.CreateProduct(context.Background(), NewProduct{Name: "Keyboard", Price: 1, Quantity: -3})
		if err != ErrInvalidInput {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("free product with default currency", func(t *testing.T) {
		p, err := svc.CreateProduct(context.Background(), NewProduct{Name: " Sticker ", Price: 0, Quantity: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name != "Sticker" || p.Price.Currency != "USD" || p.Quantity != 2 {
			t.Fatalf("unexpected product: %+v", p)
		}
	})
}

func TestListProductsClampsLimit(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, "")

	cases := []struct{ in, want int }{{0, 20}, {-5, 20}, {7, 7}, {1000, 100}}
	for _, tc := range cases {
		if _, _, err := svc.ListProducts(context.Background(), "", tc.in, ""); err != nil {
			t.Fatalf("ListProducts: %v", err)
		}
		if repo.limit != tc.want {
			t.Fatalf("limit %d: got %d, want %d", tc.in, repo.limit, tc.want)
		}
	}
}

func TestSeed(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, "EUR")

	got, err := svc.Seed(context.Background())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(got) != len(DemoProducts) || len(repo.created) != len(DemoProducts) {
		t.Fatalf("seeded %d products, want %d", len(got), len(DemoProducts))
	}
	if got[0].Price.Currency != "EUR" {
		t.Fatalf("seed should use the service currency, got %q", got[0].Price.Currency)
	}
}
