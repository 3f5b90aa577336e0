package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/nilotpaul/go-fitsync/api/middleware"
	"github.com/nilotpaul/go-fitsync/service"
	"github.com/nilotpaul/go-fitsync/setting"
	"github.com/nilotpaul/go-fitsync/types"
	"github.com/nilotpaul/go-fitsync/util"
)

type SyncHandler struct {
	metrics *service.MetricService
	syncer  *service.SyncService
}

func NewSyncHandler(metrics *service.MetricService, syncer *service.SyncService) *SyncHandler {
	return &SyncHandler{
		metrics: metrics,
		syncer:  syncer,
	}
}

// SyncHandler runs a sync batch over every metric type for the session
// user.
func (h *SyncHandler) SyncHandler(c *fiber.Ctx) error {
	result, err := h.syncer.Sync(c.Context(), middleware.UserID(c))
	if err != nil {
		return mapProviderError(err)
	}

	return c.JSON(result)
}

// DataHandler serves normalized metric records for one type over a
// period window (7d|14d|30d).
func (h *SyncHandler) DataHandler(c *fiber.Ctx) error {
	metricType, err := types.ParseMetricType(c.Params("type"))
	if err != nil {
		return util.NewAppError(
			http.StatusBadRequest,
			"invalid data type requested",
		)
	}

	req := types.NewMetricRequest(metricType, c.Query("period"), time.Now())

	records, err := h.metrics.FetchMetric(c.Context(), middleware.UserID(c), req)
	if err != nil {
		return mapProviderError(err)
	}

	return c.JSON(records)
}

// SyncProgressWebsocketHandler streams sync progress events until the
// batch completes or the client goes away.
func (h *SyncHandler) SyncProgressWebsocketHandler(conn *websocket.Conn) error {
	userID, _ := conn.Locals(setting.LocalUserIDKey).(string)
	if len(userID) == 0 {
		return util.NewAppError(
			http.StatusUnauthorized,
			"no session found",
		)
	}

	events, unsubscribe := h.syncer.Subscribe(userID)
	defer unsubscribe()

	// The event loop only wakes when a sync publishes something, so a
	// reader is needed to notice the peer hanging up in the meantime.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := streamProgress(events, done, conn); err != nil {
		return err
	}

	return conn.Close()
}

// progressWriter is the slice of the websocket connection the stream
// loop writes to.
type progressWriter interface {
	WriteJSON(v interface{}) error
}

// streamProgress forwards events until the batch completes, the
// subscription closes, or done signals that the peer went away.
func streamProgress(events <-chan types.SyncProgress, done <-chan struct{}, w progressWriter) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := w.WriteJSON(ev); err != nil {
				return err
			}
			if ev.Complete {
				return nil
			}
		case <-done:
			return nil
		}
	}
}

// mapProviderError translates the domain error taxonomy to HTTP statuses.
func mapProviderError(err error) error {
	var refreshErr *util.RefreshError
	if errors.As(err, &refreshErr) {
		// Credentials were already cleared; the account reads as unlinked.
		return util.NewAppError(
			http.StatusUnauthorized,
			"fitbit session expired, please reconnect your account",
			err,
		)
	}

	var fetchErr *util.FetchError
	if errors.As(err, &fetchErr) {
		// The provider's own status passes through; network failures are
		// already encoded as 502 by the fetch layer.
		return util.NewAppError(
			fetchErr.Status,
			"failed to fetch fitbit data",
			"provider status: ", fetchErr.Status, fetchErr.Body,
		)
	}

	var persistErr *util.PersistenceError
	if errors.As(err, &persistErr) {
		return util.NewAppError(
			http.StatusInternalServerError,
			"storage unavailable",
			err,
		)
	}

	return err
}
