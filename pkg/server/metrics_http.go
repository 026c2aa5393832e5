package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StartMetricsHTTP starts a lightweight HTTP server that exposes /metrics
// in Prometheus text exposition format. It runs in the background and
// shuts down when the server context is cancelled.
func (s *Server) StartMetricsHTTP() {
	addr := s.cfg.MetricsAddr
	if addr == "" {
		return // metrics endpoint disabled
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("metrics HTTP listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics HTTP error", "err", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		_ = srv.Close()
	}()
}

// handleMetrics writes all metrics in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := time.Since(m.startTime).Seconds()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Write errors to http.ResponseWriter are non-actionable; suppress errcheck.
	write := func(name, help, mtype string, value int64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
	}

	_, _ = fmt.Fprintf(w, "# HELP talkd_uptime_seconds Server uptime in seconds.\n")
	_, _ = fmt.Fprintf(w, "# TYPE talkd_uptime_seconds gauge\n")
	_, _ = fmt.Fprintf(w, "talkd_uptime_seconds %f\n", uptime)

	write("talkd_connections_active", "Current active connections.", "gauge",
		m.ActiveConnections.Load())
	write("talkd_connections_total", "Lifetime connections accepted.", "counter",
		m.TotalConnections.Load())
	write("talkd_disconnects_total", "Total client disconnects.", "counter",
		m.TotalDisconnects.Load())

	write("talkd_auth_success_total", "Successful register/login attempts.", "counter",
		m.SuccessfulAuths.Load())
	write("talkd_auth_failed_total", "Failed register/login attempts.", "counter",
		m.FailedAuths.Load())
	write("talkd_registrations_total", "New accounts created.", "counter",
		m.Registrations.Load())

	write("talkd_chat_messages_total", "Chat messages accepted for broadcast.", "counter",
		m.ChatMessagesSent.Load())
	write("talkd_broadcast_deliveries_total", "Individual recipient deliveries.", "counter",
		m.BroadcastsDelivered.Load())
	write("talkd_broadcast_dropped_total", "Recipients dropped during broadcast.", "counter",
		m.BroadcastsDropped.Load())
	write("talkd_user_list_requests_total", "GET_USERS queries served.", "counter",
		m.UserListRequests.Load())
}
