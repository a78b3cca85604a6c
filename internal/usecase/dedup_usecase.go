package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
)

// Dedup tiers, used as metric labels.
const (
	DedupTierExternalID  = "external_id"
	DedupTierFingerprint = "fingerprint"
)

// DefaultDedupChunkSize bounds every IN list sent to storage.
const DefaultDedupChunkSize = 500

// DedupStats counts records dropped by each tier.
type DedupStats struct {
	ByExternalID  int
	ByFingerprint int
}

// Total returns all dropped records.
func (s DedupStats) Total() int {
	return s.ByExternalID + s.ByFingerprint
}

// DedupFilter drops records already present on an account. Tier one matches
// provider ids exactly; tier two matches the (date, description, amount)
// fingerprint. Both tiers query storage in bounded chunks.
type DedupFilter struct {
	lineItems LineItemRepository
	chunkSize int
	metrics   MetricsRecorder
	logger    zerolog.Logger
}

// NewDedupFilter creates a new DedupFilter.
func NewDedupFilter(lineItems LineItemRepository, chunkSize int, metrics MetricsRecorder, logger zerolog.Logger) *DedupFilter {
	if chunkSize <= 0 {
		chunkSize = DefaultDedupChunkSize
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &DedupFilter{
		lineItems: lineItems,
		chunkSize: chunkSize,
		metrics:   metrics,
		logger:    logger,
	}
}

// Filter returns the records of accountID that are not yet stored. Records
// repeating a provider id seen earlier in the same batch are dropped too.
func (f *DedupFilter) Filter(ctx context.Context, accountID string, records []domain.ImportRecord) ([]domain.ImportRecord, DedupStats, error) {
	var stats DedupStats

	afterTier1, dropped, err := f.byExternalID(ctx, accountID, records)
	if err != nil {
		return nil, stats, err
	}
	stats.ByExternalID = dropped

	survivors, dropped, err := f.byFingerprint(ctx, accountID, afterTier1)
	if err != nil {
		return nil, stats, err
	}
	stats.ByFingerprint = dropped

	f.metrics.DuplicatesSkipped(DedupTierExternalID, stats.ByExternalID)
	f.metrics.DuplicatesSkipped(DedupTierFingerprint, stats.ByFingerprint)

	if stats.Total() > 0 {
		f.logger.Debug().
			Str("account_id", accountID).
			Int("candidates", len(records)).
			Int("by_external_id", stats.ByExternalID).
			Int("by_fingerprint", stats.ByFingerprint).
			Msg("duplicates dropped")
	}

	return survivors, stats, nil
}

func (f *DedupFilter) byExternalID(ctx context.Context, accountID string, records []domain.ImportRecord) ([]domain.ImportRecord, int, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.ExternalID == "" {
			continue
		}
		if _, ok := seen[r.ExternalID]; ok {
			continue
		}
		seen[r.ExternalID] = struct{}{}
		ids = append(ids, r.ExternalID)
	}

	existing := make(map[string]struct{})
	for _, chunk := range chunkSlice(ids, f.chunkSize) {
		found, err := f.lineItems.FindExternalIDs(ctx, accountID, chunk)
		if err != nil {
			return nil, 0, fmt.Errorf("find external ids: %w", err)
		}
		for _, id := range found {
			existing[id] = struct{}{}
		}
	}

	kept := make([]domain.ImportRecord, 0, len(records))
	batch := make(map[string]struct{})
	dropped := 0

	for _, r := range records {
		if r.ExternalID != "" {
			if _, ok := existing[r.ExternalID]; ok {
				dropped++
				continue
			}
			if _, ok := batch[r.ExternalID]; ok {
				dropped++
				continue
			}
			batch[r.ExternalID] = struct{}{}
		}
		kept = append(kept, r)
	}

	return kept, dropped, nil
}

func (f *DedupFilter) byFingerprint(ctx context.Context, accountID string, records []domain.ImportRecord) ([]domain.ImportRecord, int, error) {
	existing := make(map[string]struct{})

	for _, chunk := range chunkSlice(records, f.chunkSize) {
		dates, descriptions := fingerprintKeys(chunk)

		found, err := f.lineItems.FindFingerprints(ctx, accountID, dates, descriptions)
		if err != nil {
			return nil, 0, fmt.Errorf("find fingerprints: %w", err)
		}

		// Storage narrows by date and description only; the amount is
		// compared here.
		for _, fp := range found {
			existing[fp.Key()] = struct{}{}
		}
	}

	kept := make([]domain.ImportRecord, 0, len(records))
	dropped := 0
	for _, r := range records {
		if _, ok := existing[r.Fingerprint().Key()]; ok {
			dropped++
			continue
		}
		kept = append(kept, r)
	}

	return kept, dropped, nil
}

func fingerprintKeys(records []domain.ImportRecord) ([]time.Time, []string) {
	dateSeen := make(map[time.Time]struct{})
	descSeen := make(map[string]struct{})

	var dates []time.Time
	var descriptions []string

	for _, r := range records {
		fp := r.Fingerprint()
		if _, ok := dateSeen[fp.Date]; !ok {
			dateSeen[fp.Date] = struct{}{}
			dates = append(dates, fp.Date)
		}
		if _, ok := descSeen[fp.Description]; !ok {
			descSeen[fp.Description] = struct{}{}
			descriptions = append(descriptions, fp.Description)
		}
	}

	return dates, descriptions
}

func chunkSlice[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = max(len(items), 1)
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}

	return chunks
}
