package domain

import "time"

type Money struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// ProductInfo is the live product data a cart line is joined with.
type ProductInfo struct {
	ID    string
	Name  string
	Image string
	Price Money
	Stock int32
}

type ResolvedItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Price     Money  `json:"price"`
	Quantity  int32  `json:"quantity"`
	LineTotal Money  `json:"lineTotal"`
	// InStock is the product's remaining unreserved stock.
	InStock int32 `json:"inStock"`
}

// ResolvedCart is what clients see: cart lines populated with product data.
type ResolvedCart struct {
	ID        string         `json:"id,omitempty"`
	UserID    string         `json:"userId"`
	Items     []ResolvedItem `json:"items"`
	Total     Money          `json:"total"`
	Revision  int64          `json:"revision"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
}

// Resolve joins a cart with product data. Lines whose product is missing from
// products are left out.
func Resolve(c Cart, products map[string]ProductInfo) ResolvedCart {
	out := ResolvedCart{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     make([]ResolvedItem, 0, len(c.Items)),
		Revision:  c.Revision,
		UpdatedAt: c.UpdatedAt,
	}

	for _, it := range c.Items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		line := ResolvedItem{
			ProductID: it.ProductID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  it.Quantity,
			LineTotal: Money{Currency: p.Price.Currency, Amount: p.Price.Amount * int64(it.Quantity)},
			InStock:   p.Stock,
		}
		out.Items = append(out.Items, line)
		out.Total.Amount += line.LineTotal.Amount
	}

	if len(out.Items) > 0 {
		out.Total.Currency = out.Items[0].Price.Currency
	}
	return out
}

// Quantity returns the quantity of productID in the resolved cart, 0 when absent.
func (r ResolvedCart) Quantity(productID string) int32 {
	for _, it := range r.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}
