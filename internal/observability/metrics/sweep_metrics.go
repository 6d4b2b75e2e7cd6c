package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	boostdomain "github.com/listora/listora/internal/boost/domain"
	"gorm.io/gorm"
)

const (
	SweepErrorTypeDeadlineExceeded = "deadline_exceeded"
	SweepErrorTypeBusinessRule     = "business_rule"
	SweepErrorTypeDB               = "db"
	SweepErrorTypeUnknown          = "unknown"
)

// SweepMetrics captures boost sweep health signals.
type SweepMetrics struct {
	sweepRuns          prometheus.Counter
	sweepDuration      prometheus.Observer
	sweepErrors        *prometheus.CounterVec
	entryTransitions   *prometheus.CounterVec
	entriesExpired     prometheus.Counter
	entriesPromoted    prometheus.Counter
	queueDepth         *prometheus.GaugeVec
	projectionFailures prometheus.Counter

	mu               sync.Mutex
	transitionCounts map[string]map[string]prometheus.Counter
}

var (
	sweepMetricsOnce sync.Once
	sweepMetrics     *SweepMetrics
)

// Sweep returns the singleton sweep metrics registry.
func Sweep() *SweepMetrics {
	sweepMetricsOnce.Do(func() {
		sweepMetrics = newSweepMetrics(prometheus.DefaultRegisterer)
	})
	return sweepMetrics
}

// ResetSweepMetricsForTest resets the sweep metrics singleton for tests.
func ResetSweepMetricsForTest() {
	sweepMetricsOnce = sync.Once{}
	sweepMetrics = nil
}

func newSweepMetrics(registerer prometheus.Registerer) *SweepMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &SweepMetrics{
		transitionCounts: make(map[string]map[string]prometheus.Counter),
	}

	m.sweepRuns = register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boost_sweep_runs_total",
		Help: "Number of boost sweep executions.",
	}))
	m.sweepDuration = register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "boost_sweep_duration_seconds",
		Help:    "Duration of boost sweep executions.",
		Buckets: prometheus.DefBuckets,
	}))
	m.sweepErrors = register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boost_sweep_errors_total",
		Help: "Boost sweep errors by type.",
	}, []string{"error_type"}))
	m.entryTransitions = register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "boost_entry_transitions_total",
		Help: "Boost queue entry state transitions.",
	}, []string{"from", "to"}))
	m.entriesExpired = register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boost_entries_expired_total",
		Help: "Boost entries expired by the sweep or admin trigger.",
	}))
	m.entriesPromoted = register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boost_entries_promoted_total",
		Help: "Boost entries promoted to the active slot.",
	}))
	m.queueDepth = register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "boost_queue_pending_entries",
		Help: "Pending boost entries per category.",
	}, []string{"category"}))
	m.projectionFailures = register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "boost_projection_failures_total",
		Help: "Mirror projection writes that failed.",
	}))

	return m
}

// register adopts the already-registered collector when one exists, so
// a re-created SweepMetrics keeps writing to the live registry series.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return collector
}

func (m *SweepMetrics) IncSweepRun() {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
}

func (m *SweepMetrics) ObserveSweepDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(d.Seconds())
}

func (m *SweepMetrics) IncSweepError(err error) {
	if m == nil || err == nil {
		return
	}
	m.sweepErrors.WithLabelValues(ClassifySweepErrorType(err)).Inc()
}

func (m *SweepMetrics) IncEntryTransition(from, to string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	byTo, ok := m.transitionCounts[from]
	if !ok {
		byTo = make(map[string]prometheus.Counter)
		m.transitionCounts[from] = byTo
	}
	counter, ok := byTo[to]
	if !ok {
		counter = m.entryTransitions.WithLabelValues(from, to)
		byTo[to] = counter
	}
	m.mu.Unlock()
	counter.Inc()

	switch to {
	case string(boostdomain.EntryStateExpired):
		m.entriesExpired.Inc()
	case string(boostdomain.EntryStateActive):
		m.entriesPromoted.Inc()
	}
}

func (m *SweepMetrics) SetQueueDepth(category string, pending int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(category).Set(float64(pending))
}

func (m *SweepMetrics) IncProjectionFailure() {
	if m == nil {
		return
	}
	m.projectionFailures.Inc()
}

// ClassifySweepErrorType buckets sweep errors for metric labels.
func ClassifySweepErrorType(err error) string {
	switch {
	case err == nil:
		return SweepErrorTypeUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return SweepErrorTypeDeadlineExceeded
	case errors.Is(err, boostdomain.ErrNoActiveEntry),
		errors.Is(err, boostdomain.ErrActiveEntryExists),
		errors.Is(err, boostdomain.ErrAlreadyQueued),
		errors.Is(err, boostdomain.ErrQueueNotFound),
		errors.Is(err, boostdomain.ErrEntryNotFound):
		return SweepErrorTypeBusinessRule
	case errors.Is(err, gorm.ErrInvalidTransaction),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, gorm.ErrInvalidDB):
		return SweepErrorTypeDB
	default:
		return SweepErrorTypeUnknown
	}
}
