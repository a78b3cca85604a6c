package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

var _ usecase.MetricsRecorder = (*Metrics)(nil)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.JobsFinished == nil || m.ImportedItems == nil || m.PeriodsCreated == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.PeriodCreated()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestRecorderCounts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.JobFinished(domain.JobTypeFileImport, domain.JobStatusCompleted, 2*time.Second)
	m.LineItemsImported(domain.SourceImport, 180)
	m.LineItemsImported(domain.SourceImport, 0)
	m.DuplicatesSkipped(usecase.DedupTierExternalID, 20)
	m.BatchFailed(domain.JobTypeFileImport)
	m.PaymentApplied(15000, 500)
	m.SetQueueDepth(3)

	if got := testutil.ToFloat64(m.JobsFinished.WithLabelValues("file_import", "completed")); got != 1 {
		t.Fatalf("expected 1 finished job, got %v", got)
	}
	if got := testutil.ToFloat64(m.ImportedItems.WithLabelValues("import")); got != 180 {
		t.Fatalf("expected 180 imported items, got %v", got)
	}
	if got := testutil.ToFloat64(m.DuplicateSkips.WithLabelValues("external_id")); got != 20 {
		t.Fatalf("expected 20 skipped duplicates, got %v", got)
	}
	if got := testutil.ToFloat64(m.BatchErrors.WithLabelValues("file_import")); got != 1 {
		t.Fatalf("expected 1 batch error, got %v", got)
	}
	if got := testutil.ToFloat64(m.PaymentsApplied); got != 15000 {
		t.Fatalf("expected 15000 applied, got %v", got)
	}
	if got := testutil.ToFloat64(m.PaymentUnapplied); got != 500 {
		t.Fatalf("expected 500 unapplied, got %v", got)
	}
	if got := testutil.ToFloat64(m.QueueDepth); got != 3 {
		t.Fatalf("expected queue depth 3, got %v", got)
	}
}
