package types

import (
	"fmt"
	"time"

	"github.com/nilotpaul/go-fitsync/setting"
)

type MetricType string

const (
	MetricActivity  MetricType = "activity"
	MetricSleep     MetricType = "sleep"
	MetricHeartRate MetricType = "heartRate"
	MetricWeight    MetricType = "weight"
)

// AllMetricTypes lists every metric a sync batch covers.
var AllMetricTypes = []MetricType{
	MetricActivity,
	MetricSleep,
	MetricHeartRate,
	MetricWeight,
}

// ParseMetricType also accepts the kebab-case form used in URLs.
func ParseMetricType(s string) (MetricType, error) {
	switch s {
	case "activity":
		return MetricActivity, nil
	case "sleep":
		return MetricSleep, nil
	case "heartRate", "heart-rate", "heart":
		return MetricHeartRate, nil
	case "weight":
		return MetricWeight, nil
	}

	return "", fmt.Errorf("unknown metric type %q", s)
}

// MetricRequest is built per call and never persisted.
type MetricRequest struct {
	Type       MetricType
	RangeStart time.Time
	RangeEnd   time.Time
}

// NewMetricRequest maps a period string (7d|14d|30d) to a date range ending
// now. Unknown periods fall back to the default window.
func NewMetricRequest(t MetricType, period string, now time.Time) MetricRequest {
	days, ok := setting.Periods[period]
	if !ok {
		days = setting.Periods[setting.DefaultPeriod]
	}

	return MetricRequest{
		Type:       t,
		RangeStart: now.AddDate(0, 0, -days),
		RangeEnd:   now,
	}
}

// MetricRecord is one normalized day of data for one metric type.
// Exactly one of the summary sections is set, matching Type.
type MetricRecord struct {
	Date     string           `json:"date"`
	Type     MetricType       `json:"type"`
	Sleep    *SleepSummary    `json:"sleep,omitempty"`
	Activity *ActivitySummary `json:"activity,omitempty"`
	Heart    *HeartSummary    `json:"heart,omitempty"`
	Weight   *WeightSummary   `json:"weight,omitempty"`
}

// SleepSummary carries every duration in minutes regardless of which
// provider endpoint it came from. Missing stage breakdowns are 0, never
// null, so summary aggregation stays numeric.
type SleepSummary struct {
	DurationMinutes   int    `json:"durationMinutes"`
	EfficiencyPercent int    `json:"efficiencyPercent"`
	DeepMinutes       int    `json:"deepMinutes"`
	LightMinutes      int    `json:"lightMinutes"`
	RemMinutes        int    `json:"remMinutes"`
	AwakeMinutes      int    `json:"awakeMinutes"`
	Bedtime           string `json:"bedtime"`
	WakeTime          string `json:"wakeTime"`
}

type ActivitySummary struct {
	Steps         int     `json:"steps"`
	DistanceKm    float64 `json:"distanceKm"`
	Calories      int     `json:"calories"`
	ActiveMinutes int     `json:"activeMinutes"`
}

type HeartSummary struct {
	RestingHeartRate int `json:"restingHeartRate"`
	OutOfRangeMins   int `json:"outOfRangeMinutes"`
	FatBurnMins      int `json:"fatBurnMinutes"`
	CardioMins       int `json:"cardioMinutes"`
	PeakMins         int `json:"peakMinutes"`
}

type WeightSummary struct {
	WeightKg float64 `json:"weightKg"`
	BMI      float64 `json:"bmi"`
}
