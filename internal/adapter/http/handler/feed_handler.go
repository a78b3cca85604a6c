package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// FeedService defines the behavior needed by FeedHandler.
type FeedService interface {
	CreateLink(ctx context.Context, input usecase.CreateLinkInput) (*domain.FeedLink, error)
	StageTransactions(ctx context.Context, linkID string, txs []*domain.FeedTransaction) (int, error)
}

// FeedHandler handles open-banking feed staging requests.
type FeedHandler struct {
	feedUC FeedService
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(feedUC FeedService) *FeedHandler {
	return &FeedHandler{feedUC: feedUC}
}

// CreateLink links a provider connection to an account.
func (h *FeedHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req dto.CreateFeedLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	link, err := h.feedUC.CreateLink(r.Context(), req.ToUseCaseInput(owner))
	if err != nil {
		writeDomainError(w, "failed to create feed link", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.FeedLinkFromDomain(link))
}

// StageTransactions stages provider records for a later feed import job.
func (h *FeedHandler) StageTransactions(w http.ResponseWriter, r *http.Request) {
	var req dto.StageFeedTransactionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	staged, err := h.feedUC.StageTransactions(r.Context(), chi.URLParam(r, "id"), req.ToDomain())
	if err != nil {
		writeDomainError(w, "failed to stage transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StageFeedTransactionsResponse{
		Received: len(req.Transactions),
		Staged:   staged,
	})
}
