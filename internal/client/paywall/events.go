package paywall

// Event is a placement that may show a paywall.
type Event string

const (
	EventOnboardingComplete         Event = "onboarding_complete"
	EventFeatureLockedAnalytics     Event = "feature_locked_analytics"
	EventFeatureLockedNotifications Event = "feature_locked_notifications"
	EventFeatureLockedThemes        Event = "feature_locked_themes"
	EventFeatureLockedPremium       Event = "feature_locked_premium"
	EventCustomDemo                 Event = "custom_demo_event"
)

var AllEvents = []Event{
	EventOnboardingComplete,
	EventFeatureLockedAnalytics,
	EventFeatureLockedNotifications,
	EventFeatureLockedThemes,
	EventFeatureLockedPremium,
	EventCustomDemo,
}

// ParseEvent accepts the placement name of a known event.
func ParseEvent(s string) (Event, bool) {
	for _, e := range AllEvents {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

func (e Event) DisplayName() string {
	switch e {
	case EventOnboardingComplete:
		return "Onboarding Complete"
	case EventFeatureLockedAnalytics:
		return "Analytics Feature Locked"
	case EventFeatureLockedNotifications:
		return "Notifications Feature Locked"
	case EventFeatureLockedThemes:
		return "Themes Feature Locked"
	case EventFeatureLockedPremium:
		return "Premium Feature Locked"
	case EventCustomDemo:
		return "Custom Demo Event"
	default:
		return string(e)
	}
}
