package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks server runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	// Connection counters
	TotalConnections  atomic.Int64 // lifetime connections accepted
	ActiveConnections atomic.Int64 // current active connections
	TotalDisconnects  atomic.Int64 // total client disconnects (clean + unclean)

	// Auth counters
	SuccessfulAuths atomic.Int64 // successful register/login attempts
	FailedAuths     atomic.Int64 // failed register/login attempts
	Registrations   atomic.Int64 // new accounts created

	// Chat counters
	ChatMessagesSent    atomic.Int64 // chat messages accepted for broadcast
	BroadcastsDelivered atomic.Int64 // individual recipient deliveries
	BroadcastsDropped   atomic.Int64 // recipients dropped during broadcast
	UserListRequests    atomic.Int64 // GET_USERS queries served
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	TotalDisconnects  int64 `json:"total_disconnects"`

	SuccessfulAuths int64 `json:"successful_auths"`
	FailedAuths     int64 `json:"failed_auths"`
	Registrations   int64 `json:"registrations"`

	ChatMessagesSent    int64 `json:"chat_messages_sent"`
	BroadcastsDelivered int64 `json:"broadcasts_delivered"`
	BroadcastsDropped   int64 `json:"broadcasts_dropped"`
	UserListRequests    int64 `json:"user_list_requests"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:              uptime.Truncate(time.Second).String(),
		UptimeSeconds:       int64(uptime.Seconds()),
		ActiveConnections:   m.ActiveConnections.Load(),
		TotalConnections:    m.TotalConnections.Load(),
		TotalDisconnects:    m.TotalDisconnects.Load(),
		SuccessfulAuths:     m.SuccessfulAuths.Load(),
		FailedAuths:         m.FailedAuths.Load(),
		Registrations:       m.Registrations.Load(),
		ChatMessagesSent:    m.ChatMessagesSent.Load(),
		BroadcastsDelivered: m.BroadcastsDelivered.Load(),
		BroadcastsDropped:   m.BroadcastsDropped.Load(),
		UserListRequests:    m.UserListRequests.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a periodic metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"connections", s.ActiveConnections,
		"total_connections", s.TotalConnections,
		"auth_ok", s.SuccessfulAuths,
		"auth_failed", s.FailedAuths,
		"chat_msgs", s.ChatMessagesSent,
		"dropped", s.BroadcastsDropped,
	)
}

// StartPeriodicLog starts a goroutine that logs metrics every interval.
// It stops when the done channel is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
