package graph

import (
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("github.com/starford/notegraph/internal/graph")

	loadCounter        metric.Int64Counter
	loadFailureCounter metric.Int64Counter
	resetCounter       metric.Int64Counter
	resolutionCounter  metric.Int64Counter
	loadDuration       metric.Float64Histogram
)

func init() {
	var err error

	loadCounter, err = meter.Int64Counter(
		"notegraph.graph.loads",
		metric.WithDescription("Number of graphs built from the row store"),
	)
	if err != nil {
		log.Fatalf("failed to create notegraph.graph.loads counter: %v", err)
	}

	loadFailureCounter, err = meter.Int64Counter(
		"notegraph.graph.load_failures",
		metric.WithDescription("Number of failed graph loads"),
	)
	if err != nil {
		log.Fatalf("failed to create notegraph.graph.load_failures counter: %v", err)
	}

	resetCounter, err = meter.Int64Counter(
		"notegraph.graph.resets",
		metric.WithDescription("Number of cache invalidations"),
	)
	if err != nil {
		log.Fatalf("failed to create notegraph.graph.resets counter: %v", err)
	}

	resolutionCounter, err = meter.Int64Counter(
		"notegraph.graph.resolutions",
		metric.WithDescription("Number of per-note attribute resolutions computed"),
	)
	if err != nil {
		log.Fatalf("failed to create notegraph.graph.resolutions counter: %v", err)
	}

	loadDuration, err = meter.Float64Histogram(
		"notegraph.graph.load_duration",
		metric.WithDescription("Time to load and build a graph"),
		metric.WithUnit("s"),
	)
	if err != nil {
		log.Fatalf("failed to create notegraph.graph.load_duration histogram: %v", err)
	}
}
