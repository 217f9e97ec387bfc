// Package metrics exposes game counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the bot reports.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted      *prometheus.CounterVec
	SessionsCompleted    *prometheus.CounterVec
	AnswersTotal         *prometheus.CounterVec
	XPAwarded            *prometheus.CounterVec
	AchievementsUnlocked *prometheus.CounterVec
	LevelUps             prometheus.Counter
	RemindersSent        prometheus.Counter
	ActiveSessions       prometheus.Gauge
	SessionDuration      prometheus.Histogram
}

// New registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		SessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trivia_sessions_started_total",
				Help: "Quiz sessions started",
			},
			[]string{"category"},
		),
		SessionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trivia_sessions_completed_total",
				Help: "Quiz sessions completed",
			},
			[]string{"category", "perfect"},
		),
		AnswersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trivia_answers_total",
				Help: "Answers recorded, by outcome",
			},
			[]string{"outcome"},
		),
		XPAwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trivia_xp_awarded_total",
				Help: "XP awarded, by source",
			},
			[]string{"source"},
		),
		AchievementsUnlocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trivia_achievements_unlocked_total",
				Help: "Achievements unlocked",
			},
			[]string{"achievement"},
		),
		LevelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_level_ups_total",
			Help: "Level ups",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_streak_reminders_sent_total",
			Help: "Streak reminders sent",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trivia_active_sessions",
			Help: "Sessions currently running",
		}),
		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trivia_session_duration_seconds",
			Help:    "Wall time of completed sessions",
			Buckets: []float64{30, 60, 90, 120, 180, 240, 300, 450},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SessionsStarted,
		m.SessionsCompleted,
		m.AnswersTotal,
		m.XPAwarded,
		m.AchievementsUnlocked,
		m.LevelUps,
		m.RemindersSent,
		m.ActiveSessions,
		m.SessionDuration,
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
