// Package metrics records import counters and exports them in the node
// exporter textfile format.
package metrics

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wordup"

// Recorder holds the collectors for one process. A nil *Recorder discards
// every observation.
type Recorder struct {
	registry *prometheus.Registry

	documentsTotal *prometheus.CounterVec
	entitiesTotal  *prometheus.CounterVec
	importDuration prometheus.Histogram
}

// New registers the collectors on a private registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		documentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed by the importer, by post type and outcome.",
		}, []string{"post_type", "outcome"}),
		entitiesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_created_total",
			Help:      "Entities created in the content store, by kind.",
		}, []string{"kind"}),
		importDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Wall time of complete import runs.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Document counts one document outcome.
func (r *Recorder) Document(postType, outcome string) {
	if r == nil {
		return
	}
	r.documentsTotal.WithLabelValues(postType, outcome).Inc()
}

// Entity counts one created entity.
func (r *Recorder) Entity(kind string) {
	if r == nil {
		return
	}
	r.entitiesTotal.WithLabelValues(kind).Inc()
}

// ObserveImport records the duration of one run.
func (r *Recorder) ObserveImport(d time.Duration) {
	if r == nil {
		return
	}
	r.importDuration.Observe(d.Seconds())
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
