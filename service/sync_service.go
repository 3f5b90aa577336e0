package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nilotpaul/go-fitsync/setting"
	"github.com/nilotpaul/go-fitsync/types"
	"github.com/nilotpaul/go-fitsync/util"
)

// SyncService runs a caller-triggered sync batch over every metric type and
// fans out per-metric progress events to subscribed websocket connections.
// There is no background scheduler; syncs happen only on demand.
type SyncService struct {
	metrics *MetricService
	creds   types.CredentialStore

	watchersMu sync.RWMutex
	watchers   map[string][]chan types.SyncProgress
}

func NewSyncService(metrics *MetricService, creds types.CredentialStore) *SyncService {
	return &SyncService{
		metrics:  metrics,
		creds:    creds,
		watchers: make(map[string][]chan types.SyncProgress),
	}
}

// Subscribe registers a progress watcher for the user. The returned func
// must be called to unsubscribe.
func (s *SyncService) Subscribe(userID string) (<-chan types.SyncProgress, func()) {
	ch := make(chan types.SyncProgress, 16)

	s.watchersMu.Lock()
	s.watchers[userID] = append(s.watchers[userID], ch)
	s.watchersMu.Unlock()

	unsubscribe := func() {
		s.watchersMu.Lock()
		defer s.watchersMu.Unlock()

		chans := s.watchers[userID]
		for i, c := range chans {
			if c == ch {
				s.watchers[userID] = append(chans[:i], chans[i+1:]...)
				close(c)
				break
			}
		}
		if len(s.watchers[userID]) == 0 {
			delete(s.watchers, userID)
		}
	}

	return ch, unsubscribe
}

func (s *SyncService) publish(ev types.SyncProgress) {
	s.watchersMu.RLock()
	defer s.watchersMu.RUnlock()

	for _, ch := range s.watchers[ev.UserID] {
		select {
		case ch <- ev:
		default:
			// Progress is advisory; a slow watcher loses events rather
			// than stalling the sync.
		}
	}
}

// Sync fetches the default window for every metric type. One failing metric
// does not abort the others, but a dead refresh token does: the account is
// unlinked at that point and no further call can succeed.
func (s *SyncService) Sync(ctx context.Context, userID string) (*types.SyncResult, error) {
	result := &types.SyncResult{
		Counts: make(map[types.MetricType]int),
		Errors: make(map[types.MetricType]string),
	}

	for _, t := range types.AllMetricTypes {
		req := types.NewMetricRequest(t, setting.DefaultPeriod, time.Now())

		records, err := s.metrics.FetchMetric(ctx, userID, req)
		if err != nil {
			var refreshErr *util.RefreshError
			if errors.As(err, &refreshErr) {
				s.publish(types.SyncProgress{
					UserID:   userID,
					Metric:   t,
					ErrMsg:   refreshErr.Error(),
					Complete: true,
				})
				return nil, err
			}

			slog.Error("metric sync failed", "userID", userID, "metric", t, "err", err)
			result.Errors[t] = err.Error()
			s.publish(types.SyncProgress{UserID: userID, Metric: t, ErrMsg: err.Error()})
			continue
		}

		result.Counts[t] = len(records)
		s.publish(types.SyncProgress{UserID: userID, Metric: t, Records: len(records)})
	}

	now := time.Now()
	if len(result.Counts) != 0 {
		if err := s.creds.RecordSync(ctx, userID, now); err != nil {
			return nil, err
		}
		result.LastSyncedAt = now
	}

	s.publish(types.SyncProgress{UserID: userID, Complete: true})

	return result, nil
}
