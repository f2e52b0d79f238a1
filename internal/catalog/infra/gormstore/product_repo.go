package gormstore

import (
	"context"
	"errors"
	"strings"

	"github.com/dwikikusuma/shoping-live/internal/catalog/app"
	"github.com/dwikikusuma/shoping-live/internal/catalog/domain"
	"github.com/dwikikusuma/shoping-live/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := database.ProductRow{
		ID:          p.ID,
		Name:        p.Name,
		Image:       p.Image,
		Currency:    p.Price.Currency,
		PriceAmount: p.Price.Amount,
		Quantity:    p.Quantity,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Product{}, err
	}
	return toDomain(row), nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var row database.ProductRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Product{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return toDomain(row), nil
}

func (r *ProductRepo) List(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	tx := r.db.WithContext(ctx).Model(&database.ProductRow{})
	if cursor != "" {
		tx = tx.Where("id > ?", cursor)
	}
	if q := strings.TrimSpace(query); q != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var rows []database.ProductRow
	if err := tx.Order("id").Limit(limit).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	out := make([]domain.Product, 0, len(rows))
	var nextCursor string

	for _, row := range rows {
		out = append(out, toDomain(row))
		nextCursor = row.ID
	}

	if len(out) < limit {
		nextCursor = ""
	}

	return out, nextCursor, nil
}

func toDomain(row database.ProductRow) domain.Product {
	return domain.Product{
		ID:    row.ID,
		Name:  row.Name,
		Image: row.Image,
		Price: domain.Money{
			Currency: row.Currency,
			Amount:   row.PriceAmount,
		},
		Quantity:  row.Quantity,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
