// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "realm_guard"

var (
	// EventsProcessed counts decoded events handled by a tenant session.
	EventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Total number of decoded events processed, by signal type",
		},
		[]string{"type"},
	)

	// DetectorFlags counts flags raised by detectors.
	DetectorFlags = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detector_flags_total",
			Help:      "Total number of detection flags, by check and severity",
		},
		[]string{"check", "severity"},
	)

	// DetectorErrors counts detector failures recovered by the engine.
	DetectorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detector_errors_total",
			Help:      "Total number of malformed events or detector failures, by check",
		},
		[]string{"check"},
	)

	// DetectorDuration observes time spent per detector call.
	DetectorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detector_duration_seconds",
			Help:      "Detector evaluation latency",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
		[]string{"check"},
	)

	// EnforcementOutcomes counts enforcement attempts by action and result.
	EnforcementOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enforcement_outcomes_total",
			Help:      "Total number of enforcement attempts, by action and result",
		},
		[]string{"action", "result"},
	)

	// SessionTransitions counts terminal and spawn transitions of tenant sessions.
	SessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Total number of tenant session transitions, by resulting status",
		},
		[]string{"status"},
	)

	// LiveSessions is the number of tenant sessions not yet terminated.
	LiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Number of live tenant sessions",
		},
	)

	// ProfileLookups counts remote profile lookups by result.
	ProfileLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_lookups_total",
			Help:      "Total number of remote profile lookups, by result",
		},
		[]string{"result"},
	)

	// EventsDropped counts outbound events dropped because a queue was full.
	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Total number of dropped events, by queue",
		},
		[]string{"queue"},
	)

	// IngestRejected counts inbound messages that were not dispatched.
	IngestRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rejected_total",
			Help:      "Total number of inbound messages rejected, by reason",
		},
		[]string{"reason"},
	)

	// SweepRemoved counts entries dropped by the periodic sweep.
	SweepRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_removed_total",
			Help:      "Total number of entries removed by the memory sweep, by kind",
		},
		[]string{"kind"},
	)
)

// Collectors returns every application collector.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		EventsProcessed,
		DetectorFlags,
		DetectorErrors,
		DetectorDuration,
		EnforcementOutcomes,
		SessionTransitions,
		LiveSessions,
		ProfileLookups,
		EventsDropped,
		IngestRejected,
		SweepRemoved,
	}
}

// Register registers every application collector. Collectors that are
// already registered are skipped.
func Register(registerer prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
