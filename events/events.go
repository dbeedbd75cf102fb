package events

import (
	"context"
	"time"

	"storefront/model"

	"github.com/shopspring/decimal"
)

const TopicPurchaseCompleted = "storefront.purchase.completed"

// PurchaseCompleted is published after a purchase has been committed.
type PurchaseCompleted struct {
	PurchaseID string                `json:"purchaseId"`
	Username   string                `json:"username"`
	Items      []model.PurchasedItem `json:"items"`
	Total      decimal.Decimal       `json:"total"`
	Date       time.Time             `json:"date"`
}

func FromRecord(rec model.PurchaseRecord) PurchaseCompleted {
	return PurchaseCompleted{
		PurchaseID: rec.ID,
		Username:   rec.Username,
		Items:      rec.Items,
		Total:      rec.Total,
		Date:       rec.Date,
	}
}

// Publisher sends domain events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
	Close() error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) PublishEvent(context.Context, string, string, any) error { return nil }
func (Nop) Close() error                                             { return nil }
