package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/adapter/http/middleware"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

type feedServiceStub struct {
	linkInput usecase.CreateLinkInput
	stagedFor string
	staged    []*domain.FeedTransaction
}

func (s *feedServiceStub) CreateLink(ctx context.Context, input usecase.CreateLinkInput) (*domain.FeedLink, error) {
	s.linkInput = input
	return &domain.FeedLink{ID: "link-1", OwnerID: input.OwnerID, AccountID: input.AccountID, Provider: input.Provider}, nil
}

func (s *feedServiceStub) StageTransactions(ctx context.Context, linkID string, txs []*domain.FeedTransaction) (int, error) {
	if linkID != "link-1" {
		return 0, domain.ErrFeedLinkNotFound
	}
	s.stagedFor = linkID
	s.staged = txs
	return len(txs) - 1, nil
}

func TestFeedHandler_CreateLink(t *testing.T) {
	svc := &feedServiceStub{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feeds/links", strings.NewReader(`{"account_id":"chk-1","provider":"pluggy"}`))
	req.Header.Set(middleware.OwnerIDHeader, "owner-1")
	rec := httptest.NewRecorder()

	NewFeedHandler(svc).CreateLink(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.linkInput.OwnerID != "owner-1" || svc.linkInput.AccountID != "chk-1" {
		t.Fatalf("unexpected input: %+v", svc.linkInput)
	}
}

func TestFeedHandler_StageTransactions(t *testing.T) {
	svc := &feedServiceStub{}
	body := `{"transactions":[` +
		`{"provider_id":"tx-1","posted_at":"2025-03-02T00:00:00Z","description":"Salary","amount":500000},` +
		`{"provider_id":"tx-2","posted_at":"2025-03-03T00:00:00Z","description":"Rent","amount":-120000,"type":"expense"}]}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/feeds/links/link-1/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	NewFeedHandler(svc).StageTransactions(rec, withURLParams(req, map[string]string{"id": "link-1"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.StageFeedTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Received != 2 || resp.Staged != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(svc.staged) != 2 || svc.staged[1].Type != domain.TransactionExpense {
		t.Fatalf("unexpected staged records: %+v", svc.staged)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/feeds/links/nope/transactions", strings.NewReader(`{"transactions":[]}`))
	rec = httptest.NewRecorder()
	NewFeedHandler(svc).StageTransactions(rec, withURLParams(req, map[string]string{"id": "nope"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
