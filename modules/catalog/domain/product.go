// Package domain contains the catalog's product entity and the stock rules
// the inventory ledger enforces.
package domain

import (
	"strings"
	"time"

	shareddomain "github.com/rai/storefront-modularmonolith-go/modules/shared/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

// Product is a sellable item. Stock is never negative.
type Product struct {
	shareddomain.AggregateRoot

	id          types.ProductID
	name        string
	description string
	category    string
	price       types.Money
	stock       int
	active      bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewProduct creates an active product.
func NewProduct(name, description, category string, price types.Money, stock int) (*Product, error) {
	if err := validate(name, price); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, ErrNegativeStock
	}

	now := time.Now().UTC()
	p := &Product{
		id:          types.NewProductID(),
		name:        strings.TrimSpace(name),
		description: description,
		category:    category,
		price:       price,
		stock:       stock,
		active:      true,
		createdAt:   now,
		updatedAt:   now,
	}
	p.AddDomainEvent(NewProductChangedEvent(p))
	return p, nil
}

// Reconstitute rebuilds a product from persistence.
func Reconstitute(
	id types.ProductID,
	name, description, category string,
	price types.Money,
	stock int,
	active bool,
	createdAt, updatedAt time.Time,
) *Product {
	return &Product{
		id:          id,
		name:        name,
		description: description,
		category:    category,
		price:       price,
		stock:       stock,
		active:      active,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (p *Product) ID() types.ProductID  { return p.id }
func (p *Product) Name() string         { return p.name }
func (p *Product) Description() string  { return p.description }
func (p *Product) Category() string     { return p.category }
func (p *Product) Price() types.Money   { return p.price }
func (p *Product) Stock() int           { return p.stock }
func (p *Product) Active() bool         { return p.active }
func (p *Product) CreatedAt() time.Time { return p.createdAt }
func (p *Product) UpdatedAt() time.Time { return p.updatedAt }

// CanSupply reports whether quantity units can currently be sold.
func (p *Product) CanSupply(quantity int) bool {
	return p.active && p.stock >= quantity
}

// UpdateDetails changes the descriptive fields, price and availability.
// Stock is deliberately not part of it; see SetStock.
func (p *Product) UpdateDetails(name, description, category string, price types.Money, active bool) error {
	if err := validate(name, price); err != nil {
		return err
	}
	p.name = strings.TrimSpace(name)
	p.description = description
	p.category = category
	p.price = price
	p.active = active
	p.updatedAt = time.Now().UTC()
	p.AddDomainEvent(NewProductChangedEvent(p))
	return nil
}

// SetStock overwrites the stock level (administrative restock or count).
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return ErrNegativeStock
	}
	p.stock = stock
	p.updatedAt = time.Now().UTC()
	p.AddDomainEvent(NewProductChangedEvent(p))
	return nil
}

func validate(name string, price types.Money) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}
