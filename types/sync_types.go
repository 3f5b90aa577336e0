package types

import "time"

// SyncProgress is one event in a sync batch's progress stream.
type SyncProgress struct {
	UserID   string     `json:"user_id"`
	Metric   MetricType `json:"metric"`
	Records  int        `json:"records"`
	ErrMsg   string     `json:"error,omitempty"`
	Complete bool       `json:"complete"`
}

// SyncResult summarizes a finished sync batch.
type SyncResult struct {
	Counts       map[MetricType]int    `json:"counts"`
	Errors       map[MetricType]string `json:"errors,omitempty"`
	LastSyncedAt time.Time             `json:"lastSyncedAt"`
}
