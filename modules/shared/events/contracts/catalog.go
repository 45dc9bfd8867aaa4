package contracts

import "github.com/rai/storefront-modularmonolith-go/modules/shared/events"

const (
	ProductChangedEventType events.EventType = "catalog.ProductChanged"
)

// ProductChangedEvent carries the full product state so subscribers
// (search indexer, read cache) never have to call back into catalog.
type ProductChangedEvent struct {
	events.BaseEvent
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	Stock       int    `json:"stock"`
	Active      bool   `json:"active"`
}
