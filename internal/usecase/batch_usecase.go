package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
)

// Batch defaults.
const (
	DefaultBatchSize         = 200
	DefaultBatchDelay        = 50 * time.Millisecond
	DefaultErrorSummaryLimit = 5
)

// BatchConfig tunes the batch insert executor.
type BatchConfig struct {
	Size         int
	Delay        time.Duration
	SummaryLimit int
}

func (c BatchConfig) withDefaults() BatchConfig {
	if c.Size <= 0 {
		c.Size = DefaultBatchSize
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.SummaryLimit <= 0 {
		c.SummaryLimit = DefaultErrorSummaryLimit
	}
	return c
}

// BatchOutcome is the result of inserting every chunk.
type BatchOutcome struct {
	Imported  int
	BillItems int
	Processed int
	Errors    []domain.JobError
}

// Failed reports whether nothing was imported and at least one chunk failed.
func (o BatchOutcome) Failed() bool {
	return o.Imported == 0 && len(o.Errors) > 0
}

// Summary returns the first limit error messages.
func (o BatchOutcome) Summary(limit int) []string {
	n := min(len(o.Errors), limit)
	if n == 0 {
		return nil
	}
	summary := make([]string, 0, n)
	for _, e := range o.Errors[:n] {
		summary = append(summary, e.Message)
	}
	return summary
}

// ChunkInserter persists one chunk and reports what it wrote.
type ChunkInserter[T any] func(ctx context.Context, chunk []T) (PostingResult, error)

// ChunkReporter is called after every chunk, successful or not.
type ChunkReporter func(ctx context.Context, outcome BatchOutcome, chunkErr *domain.JobError)

// ExecuteBatches inserts items chunk by chunk. A failing chunk is recorded and
// skipped; the remaining chunks still run. Batch numbers start at 1.
func ExecuteBatches[T any](
	ctx context.Context,
	cfg BatchConfig,
	jobID string,
	items []T,
	insert ChunkInserter[T],
	report ChunkReporter,
	logger zerolog.Logger,
) BatchOutcome {
	cfg = cfg.withDefaults()

	var outcome BatchOutcome
	chunks := chunkSlice(items, cfg.Size)

	for i, chunk := range chunks {
		batchNumber := i + 1

		result, err := insert(ctx, chunk)
		outcome.Processed += len(chunk)

		var chunkErr *domain.JobError
		if err != nil {
			jobErr := domain.JobError{
				JobID:       jobID,
				BatchNumber: batchNumber,
				Message:     err.Error(),
				CreatedAt:   time.Now().UTC(),
			}
			outcome.Errors = append(outcome.Errors, jobErr)
			chunkErr = &jobErr

			logger.Warn().
				Err(err).
				Str("job_id", jobID).
				Int("batch", batchNumber).
				Int("size", len(chunk)).
				Msg("batch insert failed")
		} else {
			outcome.Imported += result.Created
			outcome.BillItems += result.BillItems
		}

		if report != nil {
			report(ctx, outcome, chunkErr)
		}

		if cfg.Delay > 0 && batchNumber < len(chunks) {
			select {
			case <-ctx.Done():
				return outcome
			case <-time.After(cfg.Delay):
			}
		}
	}

	return outcome
}
