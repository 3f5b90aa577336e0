package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nilotpaul/go-fitsync/store"
	"github.com/nilotpaul/go-fitsync/types"
	"github.com/nilotpaul/go-fitsync/util"
	"github.com/stretchr/testify/assert"
)

func newTestMetricService(provider types.OAuthProvider, creds types.CredentialStore, baseURL string) *MetricService {
	s := NewMetricService(provider, creds)
	s.baseURL = baseURL
	return s
}

func seedLinkedAccount(t *testing.T, creds types.CredentialStore) *types.FitbitAccount {
	t.Helper()

	acc := &types.FitbitAccount{
		UserID:       "user-1",
		FitbitUserID: "FB123",
		AccessToken:  "T1",
		RefreshToken: "R1",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	assert.NoError(t, creds.Save(context.Background(), acc))

	return acc
}

func sleepRequest() types.MetricRequest {
	return types.NewMetricRequest(types.MetricSleep, "7d", time.Now())
}

func TestFetchMetric_SleepNormalization(t *testing.T) {
	// The range endpoint reports duration in milliseconds; the adapter
	// must hand out minutes.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/1.2/user/-/sleep/date/")
		assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"sleep":[
			{
				"dateOfSleep":"2024-06-14",
				"duration":28800000,
				"efficiency":93,
				"startTime":"2024-06-13T23:10:00.000",
				"endTime":"2024-06-14T07:10:00.000",
				"levels":{"summary":{
					"deep":{"minutes":90},
					"light":{"minutes":230},
					"rem":{"minutes":110},
					"wake":{"minutes":50}
				}}
			},
			{
				"dateOfSleep":"2024-06-13",
				"duration":25200000,
				"efficiency":88,
				"startTime":"2024-06-12T23:45:00.000",
				"endTime":"2024-06-13T06:45:00.000"
			}
		]}`)
	}))
	defer srv.Close()

	creds := store.NewMemoryCredentialStore()
	seedLinkedAccount(t, creds)
	s := newTestMetricService(&MockProvider{}, creds, srv.URL)

	records, err := s.FetchMetric(context.Background(), "user-1", sleepRequest())
	assert.NoError(t, err)
	assert.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "2024-06-14", first.Date)
	assert.Equal(t, types.MetricSleep, first.Type)
	assert.Equal(t, 480, first.Sleep.DurationMinutes) // 28800000ms / 60000
	assert.Equal(t, 93, first.Sleep.EfficiencyPercent)
	assert.Equal(t, 90, first.Sleep.DeepMinutes)
	assert.Equal(t, 230, first.Sleep.LightMinutes)
	assert.Equal(t, 110, first.Sleep.RemMinutes)
	assert.Equal(t, 50, first.Sleep.AwakeMinutes)
	assert.Equal(t, "2024-06-13T23:10:00.000", first.Sleep.Bedtime)
	assert.Equal(t, "2024-06-14T07:10:00.000", first.Sleep.WakeTime)

	// Stage minutes never exceed the total duration.
	stages := first.Sleep.DeepMinutes + first.Sleep.LightMinutes + first.Sleep.RemMinutes
	assert.LessOrEqual(t, stages, first.Sleep.DurationMinutes)

	// A night without a stage breakdown gets zeroes, not nulls.
	second := records[1]
	assert.Equal(t, 420, second.Sleep.DurationMinutes)
	assert.Equal(t, 0, second.Sleep.DeepMinutes)
	assert.Equal(t, 0, second.Sleep.LightMinutes)
	assert.Equal(t, 0, second.Sleep.RemMinutes)
	assert.Equal(t, 0, second.Sleep.AwakeMinutes)
}

func TestFetchMetric_ActivityNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/1/user/-/activities/steps/date/")
		fmt.Fprint(w, `{"activities-steps":[{"dateTime":"2024-06-14","value":"8000"}]}`)
	}))
	defer srv.Close()

	creds := store.NewMemoryCredentialStore()
	seedLinkedAccount(t, creds)
	s := newTestMetricService(&MockProvider{}, creds, srv.URL)

	records, err := s.FetchMetric(context.Background(), "user-1",
		types.NewMetricRequest(types.MetricActivity, "7d", time.Now()))
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 8000, records[0].Activity.Steps)
	assert.InDelta(t, 6.4, records[0].Activity.DistanceKm, 0.0001)
	assert.Equal(t, 400, records[0].Activity.Calories)
	assert.Equal(t, 40, records[0].Activity.ActiveMinutes)
}

func TestFetchMetric_HeartZoneNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/1/user/-/activities/heart/date/")
		fmt.Fprint(w, `{"activities-heart":[{
			"dateTime":"2024-06-14",
			"value":{
				"restingHeartRate":62,
				"heartRateZones":[
					{"name":"Out of Range","minutes":1220},
					{"name":"Fat Burn","minutes":180},
					{"name":"Cardio","minutes":35},
					{"name":"Peak","minutes":5}
				]
			}
		}]}`)
	}))
	defer srv.Close()

	creds := store.NewMemoryCredentialStore()
	seedLinkedAccount(t, creds)
	s := newTestMetricService(&MockProvider{}, creds, srv.URL)

	records, err := s.FetchMetric(context.Background(), "user-1",
		types.NewMetricRequest(types.MetricHeartRate, "7d", time.Now()))
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 62, records[0].Heart.RestingHeartRate)
	assert.Equal(t, 1220, records[0].Heart.OutOfRangeMins)
	assert.Equal(t, 180, records[0].Heart.FatBurnMins)
	assert.Equal(t, 35, records[0].Heart.CardioMins)
	assert.Equal(t, 5, records[0].Heart.PeakMins)
}

func TestFetchMetric_EmptyWeightRangeStaysEmpty(t *testing.T) {
	// Zero records from the provider means an empty list, never
	// fabricated defaults.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"weight":[]}`)
	}))
	defer srv.Close()

	creds := store.NewMemoryCredentialStore()
	seedLinkedAccount(t, creds)
	s := newTestMetricService(&MockProvider{}, creds, srv.URL)

	records, err := s.FetchMetric(context.Background(), "user-1",
		types.NewMetricRequest(types.MetricWeight, "30d", time.Now()))
	assert.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFetchMetric_RetriesOnceAfter401(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"weight":[{"date":"2024-06-14","weight":72.5,"bmi":23.1}]}`)
	}))
	defer srv.Close()

	creds := store.NewMemoryCredentialStore()
	seedLinkedAccount(t, creds)
	provider := &MockProvider{RefreshedTok: "T2"}
	s := newTestMetricService(provider, creds, srv.URL)

	records, err := s.FetchMetric(context.Background(), "user-1",
		types.NewMetricRequest(types.MetricWeight, "7d", time.Now()))
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 72.5, records[0].Weight.WeightKg)
	assert.Equal(t, 1, provider.RefreshCalls)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetchMetric_SecondUnauthorizedIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := store.NewMemoryCredentialStore()
	seedLinkedAccount(t, creds)
	provider := &MockProvider{RefreshedTok: "T2"}
	s := newTestMetricService(provider, creds, srv.URL)

	_, err := s.FetchMetric(context.Background(), "user-1", sleepRequest())
	var fetchErr *util.FetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusUnauthorized, fetchErr.Status)
	// Exactly one forced refresh, no retry loop.
	assert.Equal(t, 1, provider.RefreshCalls)
}

func TestFetchMetric_ProviderErrorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"errors":[{"errorType":"service_unavailable"}]}`)
	}))
	defer srv.Close()

	creds := store.NewMemoryCredentialStore()
	seedLinkedAccount(t, creds)
	provider := &MockProvider{}
	s := newTestMetricService(provider, creds, srv.URL)

	_, err := s.FetchMetric(context.Background(), "user-1", sleepRequest())
	var fetchErr *util.FetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.Status)
	assert.Contains(t, fetchErr.Body, "service_unavailable")
	assert.Equal(t, 0, provider.RefreshCalls)
}

func TestFetchMetric_NotLinked(t *testing.T) {
	creds := store.NewMemoryCredentialStore()
	s := newTestMetricService(&MockProvider{}, creds, "http://unused.test")

	_, err := s.FetchMetric(context.Background(), "user-1", sleepRequest())
	var appErr *util.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestGetConnectionStatus(t *testing.T) {
	creds := store.NewMemoryCredentialStore()

	// No linked account reads as unlinked, not as an error.
	status, err := GetConnectionStatus(context.Background(), creds, "user-1")
	assert.NoError(t, err)
	assert.False(t, status.IsLinked)

	seedLinkedAccount(t, creds)
	status, err = GetConnectionStatus(context.Background(), creds, "user-1")
	assert.NoError(t, err)
	assert.True(t, status.IsLinked)
}
