package interfaces

import (
	"context"

	"github.com/bobmcallan/borsa/internal/models"
)

// QuoteClient provides current prices for single symbols
type QuoteClient interface {
	// GetQuote retrieves the current price and display name for a symbol
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// PushClient is the push-notification service
type PushClient interface {
	// Enabled reports whether the client was initialised with credentials
	Enabled() bool

	// SetUserTags records the user's notification categories
	SetUserTags(ctx context.Context, userID string, prefs models.NotificationPreferences) error

	// NotificationsEnabled reports whether the user has an active push subscription
	NotificationsEnabled(ctx context.Context, userID string) bool
}

// PriceFeed delivers live price ticks
type PriceFeed interface {
	Connect(ctx context.Context) error
	Subscribe(symbols []string) error
	OnPrice(handler func(models.PriceTick))
	Close() error
}
