package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Price is a non-negative decimal amount in the shop's single currency.
type Price = decimal.Decimal

var (
	ErrInvalidPrice = errors.New("catalog: unit price must be zero or greater")
	ErrInvalidStock = errors.New("catalog: stock must be zero or greater")
)

// Product is a finite-stock catalog entry. Quantity is mutated only through
// Catalog.DecrementAll; everything else is fixed at creation.
type Product struct {
	ID        string
	Title     string
	UnitPrice Price
	Quantity  int
	UpdatedAt time.Time
}

func NewProduct(id, title string, unitPrice Price, quantity int) (*Product, error) {
	if id == "" {
		return nil, errors.New("catalog: product id is required")
	}
	if unitPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, ErrInvalidStock
	}
	return &Product{
		ID:        id,
		Title:     title,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// View projects the product into a snapshot entry.
func (p *Product) View() View {
	return View{
		Title:     p.Title,
		UnitPrice: p.UnitPrice,
		Available: p.Quantity,
	}
}
