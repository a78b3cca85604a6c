package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/cardledger/internal/domain"
)

// Metrics holds all Prometheus metrics and implements
// usecase.MetricsRecorder.
type Metrics struct {
	// Job metrics
	JobsFinished *prometheus.CounterVec
	JobDuration  *prometheus.HistogramVec
	BatchErrors  *prometheus.CounterVec

	// Import metrics
	ImportedItems  *prometheus.CounterVec
	DuplicateSkips *prometheus.CounterVec

	// Billing metrics
	PeriodsCreated   prometheus.Counter
	PaymentsApplied  prometheus.Counter
	PaymentUnapplied prometheus.Counter

	// Queue metrics
	QueueDepth prometheus.Gauge
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		JobsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_jobs_finished_total",
				Help: "Total number of jobs that reached a terminal status",
			},
			[]string{"type", "status"},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardledger_job_duration_seconds",
				Help:    "Time from job pickup to its terminal status",
				Buckets: []float64{.05, .1, .5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"type"},
		),
		BatchErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_batch_errors_total",
				Help: "Total number of failed import batches",
			},
			[]string{"type"},
		),

		ImportedItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_line_items_imported_total",
				Help: "Total number of line items written by imports",
			},
			[]string{"source"},
		),
		DuplicateSkips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_duplicates_skipped_total",
				Help: "Total number of records dropped as duplicates",
			},
			[]string{"tier"},
		),

		PeriodsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_billing_periods_created_total",
			Help: "Total number of billing periods created",
		}),
		PaymentsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_payment_applied_minor_units_total",
			Help: "Payment amounts applied to billing periods, in minor units",
		}),
		PaymentUnapplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_payment_unapplied_minor_units_total",
			Help: "Payment amounts left over after every period was paid, in minor units",
		}),

		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cardledger_job_queue_depth",
			Help: "Number of job ids waiting in the queue",
		}),
	}
}

// JobFinished records a terminal job.
func (m *Metrics) JobFinished(jobType domain.JobType, status domain.JobStatus, elapsed time.Duration) {
	m.JobsFinished.WithLabelValues(string(jobType), string(status)).Inc()
	m.JobDuration.WithLabelValues(string(jobType)).Observe(elapsed.Seconds())
}

// LineItemsImported counts written line items.
func (m *Metrics) LineItemsImported(source domain.Source, n int) {
	if n > 0 {
		m.ImportedItems.WithLabelValues(string(source)).Add(float64(n))
	}
}

// DuplicatesSkipped counts dropped duplicates per tier.
func (m *Metrics) DuplicatesSkipped(tier string, n int) {
	if n > 0 {
		m.DuplicateSkips.WithLabelValues(tier).Add(float64(n))
	}
}

// BatchFailed counts a failed chunk.
func (m *Metrics) BatchFailed(jobType domain.JobType) {
	m.BatchErrors.WithLabelValues(string(jobType)).Inc()
}

// PeriodCreated counts a new billing period.
func (m *Metrics) PeriodCreated() {
	m.PeriodsCreated.Inc()
}

// PaymentApplied records how much of a payment was allocated.
func (m *Metrics) PaymentApplied(applied, unapplied int64) {
	if applied > 0 {
		m.PaymentsApplied.Add(float64(applied))
	}
	if unapplied > 0 {
		m.PaymentUnapplied.Add(float64(unapplied))
	}
}

// SetQueueDepth publishes the current queue length.
func (m *Metrics) SetQueueDepth(n int64) {
	m.QueueDepth.Set(float64(n))
}
