package models

// DashboardMode selects which channels are aggregated
type DashboardMode string

const (
	DashboardModeSMS  DashboardMode = "sms"
	DashboardModeMail DashboardMode = "mail"
	DashboardModeBoth DashboardMode = "both"
)

// ParseDashboardMode returns the mode for s; an empty string means both
func ParseDashboardMode(s string) (DashboardMode, bool) {
	switch DashboardMode(s) {
	case "":
		return DashboardModeBoth, true
	case DashboardModeSMS, DashboardModeMail, DashboardModeBoth:
		return DashboardMode(s), true
	}
	return "", false
}

// RiskHistogram is the four-bucket score histogram shown on the dashboard
type RiskHistogram struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
	Total  int      `json:"total"`
}
