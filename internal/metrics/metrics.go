// Package metrics counts the decisions the histogram engine makes about each
// record and exports them in the Prometheus text format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
)

// Extraction collects extraction counters. It implements freqscan.Observer.
type Extraction struct {
	registry *prometheus.Registry

	recordsRead    *prometheus.CounterVec
	recordsSkipped *prometheus.CounterVec
	pointsCounted  *prometheus.CounterVec
}

// NewExtraction creates a set of extraction counters registered with a
// private registry. The command label distinguishes runs of different
// subcommands written to the same textfile directory.
func NewExtraction(command string) *Extraction {
	constLabels := prometheus.Labels{"command": command}

	e := &Extraction{
		registry: prometheus.NewRegistry(),
		recordsRead: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "freqscan_records_read_total",
				Help:        "Total number of records read from a dataset.",
				ConstLabels: constLabels,
			},
			[]string{"dataset"},
		),
		recordsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "freqscan_records_skipped_total",
				Help:        "Total number of records not counted, by reason.",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		pointsCounted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "freqscan_points_counted_total",
				Help:        "Total number of ionospheric scatter points counted, by band.",
				ConstLabels: constLabels,
			},
			[]string{"band"},
		),
	}

	e.registry.MustRegister(e.recordsRead, e.recordsSkipped, e.pointsCounted)
	return e
}

// RecordsRead adds n to the number of records read from dataset.
func (e *Extraction) RecordsRead(dataset string, n int) {
	e.recordsRead.WithLabelValues(dataset).Add(float64(n))
}

func (e *Extraction) Skipped(reason freqscan.SkipReason) {
	e.recordsSkipped.WithLabelValues(string(reason)).Inc()
}

func (e *Extraction) Counted(band freqscan.Band, points int) {
	e.pointsCounted.WithLabelValues(band.ID).Add(float64(points))
}

// Registry returns the registry holding the extraction counters.
func (e *Extraction) Registry() *prometheus.Registry {
	return e.registry
}

// WriteTextfile writes the counters to path in the format read by the
// node_exporter textfile collector. The file is replaced atomically.
func (e *Extraction) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

var _ freqscan.Observer = (*Extraction)(nil)
