// Package metrics holds the Prometheus collectors for note operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	NoteOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cloudnotes", Name: "note_operations_total", Help: "Number of note list operations by type."},
		[]string{"op"},
	)
	DraftsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "cloudnotes", Name: "drafts_pruned_total", Help: "Number of superseded empty drafts removed on edit."},
	)
	FetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "cloudnotes", Name: "fetch_failures_total", Help: "Number of note list fetches that failed."},
	)
	StreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "cloudnotes", Subsystem: "sse", Name: "clients", Help: "Connected event stream clients."},
	)
	StreamFramesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "cloudnotes", Subsystem: "sse", Name: "frames_dropped_total", Help: "Frames skipped because a client buffer was full."},
	)
)

// RegisterCollectors registers every collector on reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(NoteOperations)
	reg.MustRegister(DraftsPruned)
	reg.MustRegister(FetchFailures)
	reg.MustRegister(StreamClients, StreamFramesDropped)
}
