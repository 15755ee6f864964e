package transport

import "time"

// AgentDashboard is the per-agent overview.
type AgentDashboard struct {
	TotalProperties   int64 `json:"totalProperties"`
	ActiveProperties  int64 `json:"activeProperties"`
	TotalViews        int64 `json:"totalViews"`
	TotalLeads        int64 `json:"totalLeads"`
	HotLeads          int64 `json:"hotLeads"`
	ConvertedLeads    int64 `json:"convertedLeads"`
	PendingBookings   int64 `json:"pendingBookings"`
	ConfirmedBookings int64 `json:"confirmedBookings"`
}

// PlatformDashboard is the management-wide overview.
type PlatformDashboard struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalAgents     int64 `json:"totalAgents"`
	VerifiedAgents  int64 `json:"verifiedAgents"`
	TotalProperties int64 `json:"totalProperties"`
	TotalLeads      int64 `json:"totalLeads"`
	TotalViews      int64 `json:"totalViews"`
	TotalSearches   int64 `json:"totalSearches"`
	TotalBookings   int64 `json:"totalBookings"`
}

// ClientDashboard summarizes a client's own activity.
type ClientDashboard struct {
	PropertiesViewed int64 `json:"propertiesViewed"`
	SearchesMade     int64 `json:"searchesMade"`
	SavedProperties  int64 `json:"savedProperties"`
	Bookings         int64 `json:"bookings"`
}

type DailyViewPoint struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

// PropertyAnalytics is the per-listing drill-down over the trailing window.
type PropertyAnalytics struct {
	WindowDays     int              `json:"windowDays"`
	TotalViews     int64            `json:"totalViews"`
	UniqueViewers  int64            `json:"uniqueViewers"`
	TotalLeads     int64            `json:"totalLeads"`
	ConvertedLeads int64            `json:"convertedLeads"`
	ConversionRate float64          `json:"conversionRate"`
	DailyViews     []DailyViewPoint `json:"dailyViews"`
}
