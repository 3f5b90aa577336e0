package types

import "time"

type User struct {
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

// FitbitAccount is the single linked provider account for an app user.
// Token fields never serialize; the UI only ever sees ConnectionStatus.
type FitbitAccount struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	FitbitUserID string     `json:"fitbit_user_id"`
	DisplayName  string     `json:"display_name"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	TokenType    string     `json:"-"`
	Scope        string     `json:"-"`
	ExpiresAt    time.Time  `json:"expires_at"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsLinked holds exactly when both halves of the token pair are present.
func (a *FitbitAccount) IsLinked() bool {
	return a != nil && len(a.AccessToken) != 0 && len(a.RefreshToken) != 0
}

// ConnectionStatus is the secret-free view of a FitbitAccount.
type ConnectionStatus struct {
	IsLinked     bool       `json:"isLinked"`
	LastSyncedAt *time.Time `json:"lastSyncedAt"`
	DisplayName  string     `json:"displayName,omitempty"`
}

// Status strips the account down to what the UI layer may see.
func (a *FitbitAccount) Status() ConnectionStatus {
	if !a.IsLinked() {
		return ConnectionStatus{}
	}

	return ConnectionStatus{
		IsLinked:     true,
		LastSyncedAt: a.LastSyncedAt,
		DisplayName:  a.DisplayName,
	}
}

// FitbitProfileResponse is the shape of GET /1/user/-/profile.json.
type FitbitProfileResponse struct {
	User struct {
		EncodedID   string `json:"encodedId"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
}

// FitbitSleepResponse is the shape of GET /1.2/user/-/sleep/date/{start}/{end}.json.
// Durations arrive in milliseconds; stage summaries may be absent entirely.
type FitbitSleepResponse struct {
	Sleep []struct {
		DateOfSleep string `json:"dateOfSleep"`
		DurationMs  int64  `json:"duration"`
		Efficiency  int    `json:"efficiency"`
		StartTime   string `json:"startTime"`
		EndTime     string `json:"endTime"`
		Levels      struct {
			Summary map[string]struct {
				Minutes int `json:"minutes"`
			} `json:"summary"`
		} `json:"levels"`
	} `json:"sleep"`
}

// FitbitStepsResponse is the shape of GET /1/user/-/activities/steps/date/{start}/{end}.json.
// Daily values arrive as strings.
type FitbitStepsResponse struct {
	ActivitiesSteps []struct {
		DateTime string `json:"dateTime"`
		Value    string `json:"value"`
	} `json:"activities-steps"`
}

// FitbitHeartResponse is the shape of GET /1/user/-/activities/heart/date/{start}/{end}.json.
type FitbitHeartResponse struct {
	ActivitiesHeart []struct {
		DateTime string `json:"dateTime"`
		Value    struct {
			RestingHeartRate int `json:"restingHeartRate"`
			HeartRateZones   []struct {
				Name    string `json:"name"`
				Minutes int    `json:"minutes"`
			} `json:"heartRateZones"`
		} `json:"value"`
	} `json:"activities-heart"`
}

// FitbitWeightResponse is the shape of GET /1/user/-/body/log/weight/date/{start}/{end}.json.
// Only days with a logged measurement appear.
type FitbitWeightResponse struct {
	Weight []struct {
		Date   string  `json:"date"`
		Weight float64 `json:"weight"`
		BMI    float64 `json:"bmi"`
	} `json:"weight"`
}
