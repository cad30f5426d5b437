package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donorcrm_late_sweep_runs_total",
		Help: "Late pledge sweeps, labeled by outcome",
	}, []string{"outcome"})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "donorcrm_late_sweep_duration_seconds",
		Help:    "Duration of a full late pledge sweep",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	})

	pledgesNewlyLate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "donorcrm_pledges_newly_late_total",
		Help: "Pledges that transitioned from on time to late",
	})

	pledgeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donorcrm_pledge_transitions_total",
		Help: "Pledge lifecycle transitions, labeled by action",
	}, []string{"action"})

	decisionHistoryRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "donorcrm_decision_history_rows_total",
		Help: "Decision history rows written",
	})

	stageEventsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donorcrm_stage_events_total",
		Help: "Journal stage events logged, labeled by pipeline stage",
	}, []string{"stage"})
)
