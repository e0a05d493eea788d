package flow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("fluxflow.flow")

var (
	stageValues = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flux_stage_values_total",
		Help: "Values emitted by stages, by component.",
	}, []string{"stage"})

	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flux_stage_failures_total",
		Help: "Runs aborted by a failing stage, by component.",
	}, []string{"stage"})

	flowRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flux_flow_runs_total",
		Help: "Flow runs by outcome.",
	}, []string{"outcome"})
)
