package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded notifications. It is
// used when Discord (or another notification backend) is not configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards notifications with a log
// message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendPriceDrop logs and discards a price-drop notification.
func (n *NoOpNotifier) SendPriceDrop(_ context.Context, drop PriceDropPayload) error {
	n.log.Debug("notification discarded (no backend configured)",
		"product", drop.ProductTitle,
		"was", drop.HighAmount.String(),
		"now", drop.NewAmount.String(),
	)
	return nil
}
