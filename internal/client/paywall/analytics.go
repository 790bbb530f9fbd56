package paywall

import (
	"context"

	"github.com/mobirithm/appkit/internal/logging"
)

const (
	AnalyticsPaywallPresented = "paywall_presented"
	AnalyticsPaywallDismissed = "paywall_dismissed"
	AnalyticsPurchaseComplete = "purchase_completed"
	AnalyticsPurchaseFailed   = "purchase_failed"
)

// AnalyticsDelegate receives paywall lifecycle events.
type AnalyticsDelegate interface {
	TrackPaywallEvent(ctx context.Context, event string, props map[string]any)
}

// LogAnalytics writes events to a logger.
type LogAnalytics struct {
	Log logging.Logger
}

func (a LogAnalytics) TrackPaywallEvent(ctx context.Context, event string, props map[string]any) {
	args := make([]any, 0, 2+2*len(props))
	args = append(args, "event", event)
	for k, v := range props {
		args = append(args, k, v)
	}
	a.Log.Info(ctx, "analytics event", args...)
}
