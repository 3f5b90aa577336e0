package setting

import (
	"time"
)

// supported providers
var Providers = []string{
	"fitbit",
}

const (
	FitbitProvider string = "fitbit"
)

// OAuth scopes requested on the Fitbit consent page.
var FitbitScopes = []string{
	"activity",
	"heartrate",
	"profile",
	"sleep",
	"weight",
}

const (
	APIPrefix  string = "/api/v1"
	SessionKey string = "session_token"

	LocalUserIDKey string = "session_user_id"

	// Consent validity requested from the provider (1 week).
	ConsentExpiresIn string = "604800"
)

const (
	// Access tokens this close to expiry are refreshed before use.
	TokenExpirySkew = 60 * time.Second

	// Authorization state entries are single-use and die after this.
	AuthStateTTL = 10 * time.Minute

	// Bound on every outbound provider call.
	ProviderTimeout = 10 * time.Second
)

// Supported lookback windows for metric requests, in days.
var Periods = map[string]int{
	"7d":  7,
	"14d": 14,
	"30d": 30,
}

const DefaultPeriod string = "7d"

var SessionExpiry time.Time = time.Now().AddDate(0, 6, 0) // 6 months expiration time.
