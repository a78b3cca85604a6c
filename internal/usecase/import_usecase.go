package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
)

// ImportPipeline deduplicates normalised records and inserts the survivors
// in bounded chunks, reporting progress after every chunk.
type ImportPipeline struct {
	txManager TransactionManager
	accounts  AccountRepository
	dedup     *DedupFilter
	posting   *PostingService
	tracker   *ProgressTracker
	batch     BatchConfig
	metrics   MetricsRecorder
	logger    zerolog.Logger
}

// NewImportPipeline creates a new ImportPipeline.
func NewImportPipeline(
	txManager TransactionManager,
	accounts AccountRepository,
	dedup *DedupFilter,
	posting *PostingService,
	tracker *ProgressTracker,
	batch BatchConfig,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *ImportPipeline {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &ImportPipeline{
		txManager: txManager,
		accounts:  accounts,
		dedup:     dedup,
		posting:   posting,
		tracker:   tracker,
		batch:     batch.withDefaults(),
		metrics:   metrics,
		logger:    logger,
	}
}

type accountRecord struct {
	account *domain.Account
	record  domain.ImportRecord
}

// Run imports records on behalf of job. Every record must carry an account id
// owned by the job owner; a missing account fails the job before anything is
// written.
func (p *ImportPipeline) Run(ctx context.Context, job *domain.Job, source domain.Source, records []domain.ImportRecord) (*domain.JobResult, error) {
	accounts, order, err := p.loadAccounts(ctx, job.OwnerID, records)
	if err != nil {
		return nil, err
	}

	progress := domain.JobProgress{Total: len(records)}
	if err := p.tracker.Update(ctx, job, progress); err != nil {
		return nil, fmt.Errorf("store progress: %w", err)
	}

	grouped := make(map[string][]domain.ImportRecord, len(order))
	for _, r := range records {
		grouped[r.AccountID] = append(grouped[r.AccountID], r)
	}

	var survivors []accountRecord
	skipped := 0

	for _, accountID := range order {
		kept, stats, err := p.dedup.Filter(ctx, accountID, grouped[accountID])
		if err != nil {
			return nil, fmt.Errorf("deduplicate: %w", err)
		}
		skipped += stats.Total()

		for _, r := range kept {
			survivors = append(survivors, accountRecord{account: accounts[accountID], record: r})
		}
	}

	progress.Skipped = skipped
	progress.Processed = skipped
	if err := p.tracker.Update(ctx, job, progress); err != nil {
		return nil, fmt.Errorf("store progress: %w", err)
	}

	jobID := job.ID

	insert := func(ctx context.Context, chunk []accountRecord) (PostingResult, error) {
		var result PostingResult

		ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		err := p.txManager.RunInTx(ctx, func(tx Transaction) error {
			session := p.posting.NewSession(tx)
			for _, ar := range chunk {
				if err := session.Stage(ctx, postingInputFor(ar, source, &jobID)); err != nil {
					return err
				}
			}

			var err error
			result, err = session.Finish(ctx)
			return err
		})

		return result, err
	}

	report := func(ctx context.Context, outcome BatchOutcome, chunkErr *domain.JobError) {
		if chunkErr != nil {
			p.tracker.RecordError(ctx, *chunkErr)
			p.metrics.BatchFailed(job.Type)
		}

		progress.Processed = skipped + outcome.Processed
		progress.Imported = outcome.Imported
		progress.BillItemsCreated = outcome.BillItems

		if err := p.tracker.Update(ctx, job, progress); err != nil {
			p.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to store job progress")
		}
	}

	outcome := ExecuteBatches(ctx, p.batch, job.ID, survivors, insert, report, p.logger)

	p.metrics.LineItemsImported(source, outcome.Imported)

	return &domain.JobResult{
		Progress:     progress,
		ErrorSummary: outcome.Summary(p.batch.SummaryLimit),
		Failed:       outcome.Failed(),
	}, nil
}

func (p *ImportPipeline) loadAccounts(ctx context.Context, ownerID string, records []domain.ImportRecord) (map[string]*domain.Account, []string, error) {
	accounts := make(map[string]*domain.Account)
	var order []string

	for i, r := range records {
		if r.AccountID == "" {
			return nil, nil, domain.NewValidationError(fmt.Sprintf("records[%d].account_id", i), "is required")
		}
		if _, ok := accounts[r.AccountID]; ok {
			continue
		}

		account, err := loadOwnedAccount(ctx, p.accounts, ownerID, r.AccountID)
		if err != nil {
			return nil, nil, err
		}

		accounts[r.AccountID] = account
		order = append(order, r.AccountID)
	}

	return accounts, order, nil
}

func postingInputFor(ar accountRecord, source domain.Source, jobID *string) PostingInput {
	r := ar.record

	var externalID *string
	if r.ExternalID != "" {
		id := r.ExternalID
		externalID = &id
	}

	// Statement rows are already one installment each; they post as single
	// items because the rest of their series is not in the file.
	return PostingInput{
		Account:      ar.account,
		Type:         r.InferType(),
		Amount:       r.Amount,
		PostedAt:     r.PostedAt,
		Description:  r.Description,
		CategoryID:   r.CategoryID,
		Installments: 1,
		ExternalID:   externalID,
		Source:       source,
		JobID:        jobID,
	}
}

// loadOwnedAccount hides accounts of other owners behind a not-found error.
func loadOwnedAccount(ctx context.Context, accounts AccountRepository, ownerID, accountID string) (*domain.Account, error) {
	account, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.NewNotFoundError("account", accountID, domain.ErrAccountNotFound)
		}
		return nil, err
	}

	if ownerID != "" && account.OwnerID != ownerID {
		return nil, domain.NewNotFoundError("account", accountID, domain.ErrAccountNotFound)
	}

	return account, nil
}

// loadOwnedCategory hides categories of other owners behind a not-found error.
func loadOwnedCategory(ctx context.Context, categories CategoryRepository, ownerID, categoryID string) (*domain.Category, error) {
	category, err := categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.NewNotFoundError("category", categoryID, domain.ErrCategoryNotFound)
		}
		return nil, err
	}

	if ownerID != "" && category.OwnerID != ownerID {
		return nil, domain.NewNotFoundError("category", categoryID, domain.ErrCategoryNotFound)
	}

	return category, nil
}

// FileImportHandler imports an uploaded CSV or OFX file.
type FileImportHandler struct {
	files             FileStore
	normalizer        Normalizer
	categories        CategoryRepository
	pipeline          *ImportPipeline
	idGen             IDGenerator
	deleteAfterImport bool
	logger            zerolog.Logger
}

// NewFileImportHandler creates a new FileImportHandler.
func NewFileImportHandler(
	files FileStore,
	normalizer Normalizer,
	categories CategoryRepository,
	pipeline *ImportPipeline,
	idGen IDGenerator,
	deleteAfterImport bool,
	logger zerolog.Logger,
) *FileImportHandler {
	return &FileImportHandler{
		files:             files,
		normalizer:        normalizer,
		categories:        categories,
		pipeline:          pipeline,
		idGen:             idGen,
		deleteAfterImport: deleteAfterImport,
		logger:            logger,
	}
}

// Handle implements JobHandler.
func (h *FileImportHandler) Handle(ctx context.Context, job *domain.Job, payload domain.Payload) (*domain.JobResult, error) {
	p, ok := payload.(*domain.FileImportPayload)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected payload %T", domain.ErrUnknownJobType, payload)
	}

	data, err := h.read(ctx, p.StorageLocation)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, p.StorageLocation, err)
	}

	records, err := h.normalizer.Normalize(p.Format, p.StorageLocation, data)
	if err != nil {
		return nil, domain.NewValidationError("file", err.Error())
	}

	records = selectRecords(records, p.Options.SelectedIDs)

	mappings, err := h.resolveCategories(ctx, job.OwnerID, p.Options)
	if err != nil {
		return nil, err
	}

	for i := range records {
		r := &records[i]
		if r.AccountID == "" && p.Options.AccountID != nil {
			r.AccountID = *p.Options.AccountID
		}
		if r.CategoryID == nil && r.Category != "" {
			if id, ok := mappings[strings.TrimSpace(r.Category)]; ok {
				r.CategoryID = &id
			}
		}
	}

	result, err := h.pipeline.Run(ctx, job, domain.SourceImport, records)
	if err != nil {
		return nil, err
	}

	if h.shouldDelete(p.Options) && !result.Failed {
		if err := h.files.Delete(ctx, p.StorageLocation); err != nil {
			h.logger.Warn().
				Err(err).
				Str("job_id", job.ID).
				Str("location", p.StorageLocation).
				Msg("failed to delete imported file")
		}
	}

	return result, nil
}

func (h *FileImportHandler) read(ctx context.Context, location string) ([]byte, error) {
	rc, err := h.files.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func (h *FileImportHandler) shouldDelete(opts domain.ImportOptions) bool {
	if opts.DeleteAfterImport != nil {
		return *opts.DeleteAfterImport
	}
	return h.deleteAfterImport
}

// resolveCategories creates the requested categories and returns the merged
// name to id mapping. Every mapped id must exist.
func (h *FileImportHandler) resolveCategories(ctx context.Context, ownerID string, opts domain.ImportOptions) (map[string]string, error) {
	mappings := make(map[string]string, len(opts.CategoryMappings)+len(opts.CategoriesToCreate))

	for name, id := range opts.CategoryMappings {
		if _, err := loadOwnedCategory(ctx, h.categories, ownerID, id); err != nil {
			return nil, err
		}
		mappings[strings.TrimSpace(name)] = id
	}

	for _, name := range opts.CategoriesToCreate {
		name = strings.TrimSpace(name)
		category, err := h.categories.GetOrCreate(ctx, h.idGen.Generate(), ownerID, name)
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", name, err)
		}
		if _, mapped := mappings[name]; !mapped {
			mappings[name] = category.ID
		}
	}

	return mappings, nil
}

func selectRecords(records []domain.ImportRecord, selected []string) []domain.ImportRecord {
	if len(selected) == 0 {
		return records
	}

	want := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		want[id] = struct{}{}
	}

	kept := records[:0:0]
	for _, r := range records {
		if _, ok := want[r.ExternalID]; ok {
			kept = append(kept, r)
		}
	}

	return kept
}

// FeedImportHandler imports staged open-banking transactions.
type FeedImportHandler struct {
	feeds      FeedRepository
	categories CategoryRepository
	pipeline   *ImportPipeline
	chunkSize  int
	logger     zerolog.Logger
}

// NewFeedImportHandler creates a new FeedImportHandler.
func NewFeedImportHandler(
	feeds FeedRepository,
	categories CategoryRepository,
	pipeline *ImportPipeline,
	chunkSize int,
	logger zerolog.Logger,
) *FeedImportHandler {
	if chunkSize <= 0 {
		chunkSize = DefaultDedupChunkSize
	}
	return &FeedImportHandler{
		feeds:      feeds,
		categories: categories,
		pipeline:   pipeline,
		chunkSize:  chunkSize,
		logger:     logger,
	}
}

// Handle implements JobHandler.
func (h *FeedImportHandler) Handle(ctx context.Context, job *domain.Job, payload domain.Payload) (*domain.JobResult, error) {
	p, ok := payload.(*domain.FeedImportPayload)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected payload %T", domain.ErrUnknownJobType, payload)
	}

	link, err := h.feeds.GetLink(ctx, p.LinkID)
	if err != nil {
		if errors.Is(err, domain.ErrFeedLinkNotFound) {
			return nil, domain.NewNotFoundError("feed link", p.LinkID, domain.ErrFeedLinkNotFound)
		}
		return nil, err
	}
	if job.OwnerID != "" && link.OwnerID != job.OwnerID {
		return nil, domain.NewNotFoundError("feed link", p.LinkID, domain.ErrFeedLinkNotFound)
	}

	overrides := make(map[string]*string, len(p.Transactions))
	ids := make([]string, 0, len(p.Transactions))
	for _, sel := range p.Transactions {
		if _, dup := overrides[sel.ID]; dup {
			continue
		}
		if sel.CategoryID != nil {
			if _, err := loadOwnedCategory(ctx, h.categories, link.OwnerID, *sel.CategoryID); err != nil {
				return nil, err
			}
		}
		overrides[sel.ID] = sel.CategoryID
		ids = append(ids, sel.ID)
	}

	records := make([]domain.ImportRecord, 0, len(ids))
	for _, chunk := range chunkSlice(ids, h.chunkSize) {
		staged, err := h.feeds.ListStaged(ctx, link.ID, chunk)
		if err != nil {
			return nil, fmt.Errorf("load staged transactions: %w", err)
		}

		for _, tx := range staged {
			record := tx.ToImportRecord(link.AccountID)
			if override := overrides[tx.ProviderID]; override != nil {
				record.CategoryID = override
			}
			records = append(records, record)
		}
	}

	if missing := len(ids) - len(records); missing > 0 {
		h.logger.Warn().
			Str("job_id", job.ID).
			Str("link_id", link.ID).
			Int("missing", missing).
			Msg("selected feed transactions not staged")
	}

	return h.pipeline.Run(ctx, job, domain.SourceFeed, records)
}
