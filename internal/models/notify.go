package models

// Notification categories offered when asking for push permission
const (
	TagTradingSignals = "trading_signals"
	TagPriceAlerts    = "price_alerts"
	TagNews           = "news"
)

// NotificationPreferences are the per-user push categories
type NotificationPreferences struct {
	TradingSignals bool `json:"tradingSignals"`
	PriceAlerts    bool `json:"priceAlerts"`
	News           bool `json:"news"`
}

// Tags returns the preferences as push-service tags, including the user id.
func (p NotificationPreferences) Tags(userID string) map[string]string {
	return map[string]string{
		"user_id":         userID,
		TagTradingSignals: boolTag(p.TradingSignals),
		TagPriceAlerts:    boolTag(p.PriceAlerts),
		TagNews:           boolTag(p.News),
	}
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
