package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nilotpaul/go-fitsync/store"
	"github.com/nilotpaul/go-fitsync/types"
	"github.com/nilotpaul/go-fitsync/util"
	"github.com/stretchr/testify/assert"
)

// fakeDataServer serves minimal valid payloads for every metric endpoint.
func fakeDataServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/sleep/"):
			fmt.Fprint(w, `{"sleep":[{"dateOfSleep":"2024-06-14","duration":27000000,"efficiency":90}]}`)
		case strings.Contains(r.URL.Path, "/activities/steps/"):
			fmt.Fprint(w, `{"activities-steps":[{"dateTime":"2024-06-14","value":"9000"}]}`)
		case strings.Contains(r.URL.Path, "/activities/heart/"):
			fmt.Fprint(w, `{"activities-heart":[{"dateTime":"2024-06-14","value":{"restingHeartRate":60}}]}`)
		case strings.Contains(r.URL.Path, "/body/log/weight/"):
			fmt.Fprint(w, `{"weight":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestSync_AllMetrics(t *testing.T) {
	srv := fakeDataServer()
	defer srv.Close()

	creds := store.NewMemoryCredentialStore()
	seedLinkedAccount(t, creds)
	metrics := newTestMetricService(&MockProvider{}, creds, srv.URL)
	syncer := NewSyncService(metrics, creds)

	result, err := syncer.Sync(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.Counts[types.MetricSleep])
	assert.Equal(t, 1, result.Counts[types.MetricActivity])
	assert.Equal(t, 1, result.Counts[types.MetricHeartRate])
	assert.Equal(t, 0, result.Counts[types.MetricWeight])
	assert.False(t, result.LastSyncedAt.IsZero())

	// A successful batch records the sync time.
	acc, err := creds.Load(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.NotNil(t, acc.LastSyncedAt)
	assert.WithinDuration(t, time.Now(), *acc.LastSyncedAt, 5*time.Second)
}

func TestSync_ProgressEvents(t *testing.T) {
	srv := fakeDataServer()
	defer srv.Close()

	creds := store.NewMemoryCredentialStore()
	seedLinkedAccount(t, creds)
	metrics := newTestMetricService(&MockProvider{}, creds, srv.URL)
	syncer := NewSyncService(metrics, creds)

	events, unsubscribe := syncer.Subscribe("user-1")
	defer unsubscribe()

	_, err := syncer.Sync(context.Background(), "user-1")
	assert.NoError(t, err)

	// One event per metric in batch order, then the completion marker.
	var got []types.SyncProgress
	for ev := range events {
		got = append(got, ev)
		if ev.Complete {
			break
		}
	}
	assert.Len(t, got, len(types.AllMetricTypes)+1)
	for i, metricType := range types.AllMetricTypes {
		assert.Equal(t, metricType, got[i].Metric)
		assert.Empty(t, got[i].ErrMsg)
	}
	assert.True(t, got[len(got)-1].Complete)
}

func TestSync_MetricFailureDoesNotAbortBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/sleep/") {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		switch {
		case strings.Contains(r.URL.Path, "/activities/steps/"):
			fmt.Fprint(w, `{"activities-steps":[{"dateTime":"2024-06-14","value":"9000"}]}`)
		case strings.Contains(r.URL.Path, "/activities/heart/"):
			fmt.Fprint(w, `{"activities-heart":[]}`)
		case strings.Contains(r.URL.Path, "/body/log/weight/"):
			fmt.Fprint(w, `{"weight":[]}`)
		}
	}))
	defer srv.Close()

	creds := store.NewMemoryCredentialStore()
	seedLinkedAccount(t, creds)
	metrics := newTestMetricService(&MockProvider{}, creds, srv.URL)
	syncer := NewSyncService(metrics, creds)

	result, err := syncer.Sync(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Contains(t, result.Errors, types.MetricSleep)
	assert.NotContains(t, result.Counts, types.MetricSleep)
	assert.Equal(t, 1, result.Counts[types.MetricActivity])
	assert.False(t, result.LastSyncedAt.IsZero())
}

func TestSync_RefreshErrorAbortsBatch(t *testing.T) {
	creds := store.NewMemoryCredentialStore()
	seedLinkedAccount(t, creds)

	provider := &MockProvider{EnsureErr: &util.RefreshError{}}
	metrics := newTestMetricService(provider, creds, "http://unused.test")
	syncer := NewSyncService(metrics, creds)

	_, err := syncer.Sync(context.Background(), "user-1")
	var refreshErr *util.RefreshError
	assert.ErrorAs(t, err, &refreshErr)

	// The aborted batch never records a sync time.
	acc, loadErr := creds.Load(context.Background(), "user-1")
	assert.NoError(t, loadErr)
	assert.Nil(t, acc.LastSyncedAt)
}

func TestSubscribe_UnsubscribeStopsDelivery(t *testing.T) {
	creds := store.NewMemoryCredentialStore()
	metrics := newTestMetricService(&MockProvider{}, creds, "http://unused.test")
	syncer := NewSyncService(metrics, creds)

	events, unsubscribe := syncer.Subscribe("user-1")
	unsubscribe()

	// The channel closes on unsubscribe.
	_, open := <-events
	assert.False(t, open)
}
