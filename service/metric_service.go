package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/nilotpaul/go-fitsync/setting"
	"github.com/nilotpaul/go-fitsync/types"
	"github.com/nilotpaul/go-fitsync/util"
)

const defaultAPIBaseURL = "https://api.fitbit.com"

// MetricService maps metric requests to provider endpoints and normalizes
// the responses into the application's shape. It never fabricates data: an
// empty provider response yields an empty slice.
type MetricService struct {
	provider types.OAuthProvider
	creds    types.CredentialStore
	client   *http.Client
	baseURL  string
}

func NewMetricService(provider types.OAuthProvider, creds types.CredentialStore) *MetricService {
	return &MetricService{
		provider: provider,
		creds:    creds,
		client:   util.NewProviderHTTPClient(setting.ProviderTimeout),
		baseURL:  defaultAPIBaseURL,
	}
}

// FetchMetric runs the pre-flight token check, issues the authenticated GET
// and normalizes the result. A 401 from the provider gets exactly one retry
// after a forced refresh; any other failure is terminal for the call.
func (s *MetricService) FetchMetric(ctx context.Context, userID string, req types.MetricRequest) ([]types.MetricRecord, error) {
	acc, err := s.creds.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !acc.IsLinked() {
		return nil, util.NewAppError(
			http.StatusUnauthorized,
			"fitbit account not connected",
		)
	}

	acc, err = s.provider.EnsureFreshToken(ctx, acc)
	if err != nil {
		return nil, err
	}

	records, err := s.fetch(ctx, acc, req)
	if err != nil {
		var fErr *util.FetchError
		if errors.As(err, &fErr) && fErr.Status == http.StatusUnauthorized {
			acc, err = s.provider.RefreshToken(ctx, acc)
			if err != nil {
				return nil, err
			}
			return s.fetch(ctx, acc, req)
		}
		return nil, err
	}

	return records, nil
}

func (s *MetricService) fetch(ctx context.Context, acc *types.FitbitAccount, req types.MetricRequest) ([]types.MetricRecord, error) {
	path, err := endpointPath(req)
	if err != nil {
		return nil, util.NewAppError(http.StatusBadRequest, err.Error())
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Authorization", "Bearer "+acc.AccessToken)
	hreq.Header.Set("Accept", "application/json")

	res, err := s.client.Do(hreq)
	if err != nil {
		// Network failures count the same as a bad gateway response.
		return nil, &util.FetchError{Status: http.StatusBadGateway, Body: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return nil, &util.FetchError{Status: res.StatusCode, Body: string(body)}
	}

	switch req.Type {
	case types.MetricSleep:
		var raw types.FitbitSleepResponse
		if err := util.DecodeJSON(res.Body, &raw); err != nil {
			return nil, err
		}
		return normalizeSleep(raw), nil
	case types.MetricActivity:
		var raw types.FitbitStepsResponse
		if err := util.DecodeJSON(res.Body, &raw); err != nil {
			return nil, err
		}
		return normalizeActivity(raw), nil
	case types.MetricHeartRate:
		var raw types.FitbitHeartResponse
		if err := util.DecodeJSON(res.Body, &raw); err != nil {
			return nil, err
		}
		return normalizeHeart(raw), nil
	case types.MetricWeight:
		var raw types.FitbitWeightResponse
		if err := util.DecodeJSON(res.Body, &raw); err != nil {
			return nil, err
		}
		return normalizeWeight(raw), nil
	}

	return nil, fmt.Errorf("unknown metric type %q", req.Type)
}

func endpointPath(req types.MetricRequest) (string, error) {
	start := util.FormatDate(req.RangeStart)
	end := util.FormatDate(req.RangeEnd)

	switch req.Type {
	case types.MetricActivity:
		return fmt.Sprintf("/1/user/-/activities/steps/date/%s/%s.json", start, end), nil
	case types.MetricSleep:
		return fmt.Sprintf("/1.2/user/-/sleep/date/%s/%s.json", start, end), nil
	case types.MetricHeartRate:
		return fmt.Sprintf("/1/user/-/activities/heart/date/%s/%s.json", start, end), nil
	case types.MetricWeight:
		return fmt.Sprintf("/1/user/-/body/log/weight/date/%s/%s.json", start, end), nil
	}

	return "", fmt.Errorf("unknown metric type %q", req.Type)
}

// normalizeSleep converts every duration to minutes. The range endpoint
// reports total duration in milliseconds while stage summaries are already
// minutes; a night without a stage breakdown gets zeroes, not nulls.
func normalizeSleep(raw types.FitbitSleepResponse) []types.MetricRecord {
	records := make([]types.MetricRecord, 0, len(raw.Sleep))
	for _, entry := range raw.Sleep {
		summary := types.SleepSummary{
			DurationMinutes:   int(entry.DurationMs / 60000),
			EfficiencyPercent: entry.Efficiency,
			DeepMinutes:       entry.Levels.Summary["deep"].Minutes,
			LightMinutes:      entry.Levels.Summary["light"].Minutes,
			RemMinutes:        entry.Levels.Summary["rem"].Minutes,
			AwakeMinutes:      entry.Levels.Summary["wake"].Minutes,
			Bedtime:           entry.StartTime,
			WakeTime:          entry.EndTime,
		}

		records = append(records, types.MetricRecord{
			Date:  entry.DateOfSleep,
			Type:  types.MetricSleep,
			Sleep: &summary,
		})
	}

	return records
}

func normalizeActivity(raw types.FitbitStepsResponse) []types.MetricRecord {
	records := make([]types.MetricRecord, 0, len(raw.ActivitiesSteps))
	for _, day := range raw.ActivitiesSteps {
		steps, err := strconv.Atoi(day.Value)
		if err != nil {
			steps = 0
		}

		records = append(records, types.MetricRecord{
			Date: day.DateTime,
			Type: types.MetricActivity,
			Activity: &types.ActivitySummary{
				Steps:         steps,
				DistanceKm:    float64(steps) * 0.0008,
				Calories:      int(math.Floor(float64(steps) * 0.05)),
				ActiveMinutes: steps / 200,
			},
		})
	}

	return records
}

func normalizeHeart(raw types.FitbitHeartResponse) []types.MetricRecord {
	records := make([]types.MetricRecord, 0, len(raw.ActivitiesHeart))
	for _, day := range raw.ActivitiesHeart {
		summary := types.HeartSummary{
			RestingHeartRate: day.Value.RestingHeartRate,
		}
		for _, zone := range day.Value.HeartRateZones {
			switch zone.Name {
			case "Out of Range":
				summary.OutOfRangeMins = zone.Minutes
			case "Fat Burn":
				summary.FatBurnMins = zone.Minutes
			case "Cardio":
				summary.CardioMins = zone.Minutes
			case "Peak":
				summary.PeakMins = zone.Minutes
			}
		}

		records = append(records, types.MetricRecord{
			Date:  day.DateTime,
			Type:  types.MetricHeartRate,
			Heart: &summary,
		})
	}

	return records
}

// normalizeWeight passes through exactly the days the provider logged a
// measurement for; the range is not zero-filled.
func normalizeWeight(raw types.FitbitWeightResponse) []types.MetricRecord {
	records := make([]types.MetricRecord, 0, len(raw.Weight))
	for _, entry := range raw.Weight {
		records = append(records, types.MetricRecord{
			Date: entry.Date,
			Type: types.MetricWeight,
			Weight: &types.WeightSummary{
				WeightKg: entry.Weight,
				BMI:      entry.BMI,
			},
		})
	}

	return records
}
