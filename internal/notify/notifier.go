// Package notify defines the notification interface and implementations
// for price-drop alert delivery.
package notify

import (
	"context"

	"github.com/pricescout/pricescout/pkg/money"
)

// PriceDropPayload contains the data needed to send a price-drop notification.
type PriceDropPayload struct {
	ProductTitle string
	ProductURL   string
	ImageURL     string
	HighAmount   money.Cents
	NewAmount    money.Cents
}

// DropPercent returns the size of the drop relative to the high price,
// in whole percent.
func (p PriceDropPayload) DropPercent() float64 {
	if p.HighAmount <= 0 {
		return 0
	}
	return float64(p.HighAmount-p.NewAmount) / float64(p.HighAmount) * 100
}

// Notifier defines the interface for delivering price-drop notifications.
type Notifier interface {
	SendPriceDrop(ctx context.Context, drop PriceDropPayload) error
}
