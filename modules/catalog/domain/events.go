package domain

import (
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/events/contracts"
)

const ProductChangedEventType = contracts.ProductChangedEventType

func NewProductChangedEvent(p *Product) contracts.ProductChangedEvent {
	return contracts.ProductChangedEvent{
		BaseEvent:   events.NewBaseEvent(ProductChangedEventType, p.ID().String()),
		ProductID:   p.ID().String(),
		Name:        p.Name(),
		Description: p.Description(),
		Category:    p.Category(),
		Price:       p.Price().StringFixed(),
		Currency:    p.Price().Currency(),
		Stock:       p.Stock(),
		Active:      p.Active(),
	}
}
