package database

import "time"

type ProductRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"not null;index"`
	Image       string
	Currency    string `gorm:"size:3;not null"`
	PriceAmount int64  `gorm:"not null"`
	Quantity    int32  `gorm:"not null;check:chk_products_quantity,quantity >= 0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ProductRow) TableName() string { return "products" }

// CartRow is the single cart of a user.
type CartRow struct {
	ID        string        `gorm:"primaryKey;size:36"`
	UserID    string        `gorm:"size:36;not null;uniqueIndex"`
	Items     []CartItemRow `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	Revision  int64         `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CartRow) TableName() string { return "carts" }

type CartItemRow struct {
	CartID    string `gorm:"primaryKey;size:36"`
	ProductID string `gorm:"primaryKey;size:36"`
	Quantity  int32  `gorm:"not null;check:chk_cart_items_quantity,quantity >= 1"`
	AddedAt   time.Time
}

func (CartItemRow) TableName() string { return "cart_items" }

type UserRow struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (UserRow) TableName() string { return "users" }
