package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/dwikikusuma/shoping-live/internal/cart/app"
	"github.com/dwikikusuma/shoping-live/internal/cart/domain"
	"github.com/dwikikusuma/shoping-live/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store runs every unit of work in one database transaction. Stock moves with
// a conditional UPDATE on the product row, so concurrent reservations are
// serialised by the database rather than by read-then-write in Go.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Atomically(ctx context.Context, fn func(tx app.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&tx{db: db})
	})
}

type tx struct {
	db *gorm.DB
}

func (t *tx) FindCart(ctx context.Context, userID string) (domain.Cart, error) {
	var row database.CartRow
	err := t.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at ASC, product_id ASC") }).
		Where("user_id = ?", userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Cart{}, app.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, err
	}
	return toDomain(row), nil
}

func (t *tx) GetOrCreateCart(ctx context.Context, userID string) (domain.Cart, error) {
	cart, err := t.FindCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, app.ErrCartNotFound) {
		return domain.Cart{}, err
	}

	// A concurrent creator wins the unique index; ours becomes a no-op and
	// the re-read below sees theirs.
	row := database.CartRow{ID: uuid.NewString(), UserID: userID}
	err = t.db.
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return domain.Cart{}, err
	}
	return t.FindCart(ctx, userID)
}

func (t *tx) FindItem(ctx context.Context, cartID, productID string) (domain.CartItem, error) {
	var row database.CartItemRow
	err := t.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.CartItem{}, app.ErrItemNotFound
	}
	if err != nil {
		return domain.CartItem{}, err
	}
	return domain.CartItem{ProductID: row.ProductID, Quantity: row.Quantity}, nil
}

func (t *tx) IncrementItem(ctx context.Context, cartID, productID string, qty int32) error {
	now := time.Now().UTC()
	row := database.CartItemRow{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  qty,
		AddedAt:   now,
	}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("cart_items.quantity + ?", qty)}),
	}).Create(&row).Error
	if err != nil {
		return err
	}
	return t.touch(cartID, now)
}

func (t *tx) SetItemQuantity(ctx context.Context, cartID, productID string, qty int32) error {
	res := t.db.Model(&database.CartItemRow{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return app.ErrItemNotFound
	}
	return t.touch(cartID, time.Now().UTC())
}

func (t *tx) RemoveItem(ctx context.Context, cartID, productID string) error {
	res := t.db.
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&database.CartItemRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return app.ErrItemNotFound
	}
	return t.touch(cartID, time.Now().UTC())
}

func (t *tx) AdjustStock(ctx context.Context, productID string, delta int32) error {
	res := t.db.Model(&database.ProductRow{}).
		Where("id = ? AND quantity + ? >= 0", productID, delta).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := t.db.Model(&database.ProductRow{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return app.ErrProductNotFound
	}
	return app.ErrOutOfStock
}

func (t *tx) Products(ctx context.Context, ids []string) (map[string]domain.ProductInfo, error) {
	out := make(map[string]domain.ProductInfo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []database.ProductRow
	if err := t.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = domain.ProductInfo{
			ID:    row.ID,
			Name:  row.Name,
			Image: row.Image,
			Price: domain.Money{Currency: row.Currency, Amount: row.PriceAmount},
			Stock: row.Quantity,
		}
	}
	return out, nil
}

// touch bumps the cart revision. The row stays locked until the transaction
// ends, so revisions of one cart follow commit order.
func (t *tx) touch(cartID string, at time.Time) error {
	return t.db.Model(&database.CartRow{}).Where("id = ?", cartID).Updates(map[string]interface{}{
		"updated_at": at,
		"revision":   gorm.Expr("revision + 1"),
	}).Error
}

func toDomain(row database.CartRow) domain.Cart {
	items := make([]domain.CartItem, 0, len(row.Items))
	for _, item := range row.Items {
		items = append(items, domain.CartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	return domain.Cart{
		ID:        row.ID,
		UserID:    row.UserID,
		Items:     items,
		Revision:  row.Revision,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
