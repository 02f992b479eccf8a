// Package metrics records fit and evaluation counters for one CLI run.
package metrics

import (
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Fit outcomes used as label values.
const (
	OutcomeOK             = "ok"
	OutcomeNonConvergence = "non_convergence"
	OutcomeError          = "error"
)

// Recorder holds the collectors of one run in a private registry.
type Recorder struct {
	registry    *prometheus.Registry
	fits        *prometheus.CounterVec
	fitDuration *prometheus.HistogramVec
	maxResidual *prometheus.GaugeVec
	objective   *prometheus.CounterVec
	evaluations *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "density_fits_total",
				Help: "Total number of model fits",
			},
			[]string{"solute", "strategy", "outcome"},
		),
		fitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "density_fit_duration_seconds",
				Help:    "Duration of model fits",
				Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
			},
			[]string{"solute", "strategy"},
		),
		maxResidual: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "density_fit_max_residual",
				Help: "Maximum absolute residual of the last fit in g/mL",
			},
			[]string{"solute"},
		),
		objective: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "density_objective_evaluations_total",
				Help: "Objective evaluations spent by iterative strategies",
			},
			[]string{"solute", "strategy"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "density_evaluations_total",
				Help: "Total number of density evaluations",
			},
			[]string{"solute", "extrapolated"},
		),
	}
	r.registry.MustRegister(r.fits, r.fitDuration, r.maxResidual, r.objective, r.evaluations)
	return r
}

// ObserveFit records one fit. maxResidual is ignored for OutcomeError.
func (r *Recorder) ObserveFit(solute, strategy, outcome string, elapsed time.Duration, maxResidual float64, evaluations int) {
	r.fits.WithLabelValues(solute, strategy, outcome).Inc()
	r.fitDuration.WithLabelValues(solute, strategy).Observe(elapsed.Seconds())
	if outcome != OutcomeError {
		r.maxResidual.WithLabelValues(solute).Set(maxResidual)
	}
	if evaluations > 0 {
		r.objective.WithLabelValues(solute, strategy).Add(float64(evaluations))
	}
}

func (r *Recorder) ObserveEvaluation(solute string, extrapolated bool) {
	r.evaluations.WithLabelValues(solute, strconv.FormatBool(extrapolated)).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteText writes all metrics in the Prometheus text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "write metrics")
		}
	}
	return nil
}
