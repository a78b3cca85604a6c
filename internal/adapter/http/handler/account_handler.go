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

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	ListPeriods(ctx context.Context, accountID string, limit, offset int) ([]*domain.BillingPeriod, error)
	GetPeriod(ctx context.Context, id string) (*domain.BillingPeriod, error)
	ListPeriodItems(ctx context.Context, periodID string, limit, offset int) ([]*domain.LineItem, error)
}

// ReconcileService defines the reconciliation behavior needed by AccountHandler.
type ReconcileService interface {
	ReconcileAccount(ctx context.Context, accountID string, repair bool) (*usecase.ReconciliationResult, error)
}

// AccountHandler handles account and billing period HTTP requests.
type AccountHandler struct {
	accountUC   AccountService
	reconcileUC ReconcileService
}

// NewAccountHandler creates a new AccountHandler. reconcileUC may be nil,
// in which case the reconcile endpoint answers 501.
func NewAccountHandler(accountUC AccountService, reconcileUC ReconcileService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, reconcileUC: reconcileUC}
}

// Create creates a new account for the requesting owner.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput(owner))
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists the requesting owner's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		OwnerID: owner,
		Limit:   parseIntQuery(r, "limit", 20),
		Offset:  parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// ListPeriods lists an account's billing periods, newest first.
func (h *AccountHandler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	periods, err := h.accountUC.ListPeriods(r.Context(), account.ID, parseIntQuery(r, "limit", 12), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list periods", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListPeriodsResponse{
		Periods: dto.PeriodsFromDomain(periods),
		Total:   int64(len(periods)),
	})
}

// ListPeriodItems lists the line items of a billing period.
func (h *AccountHandler) ListPeriodItems(w http.ResponseWriter, r *http.Request) {
	period, err := h.accountUC.GetPeriod(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get period", err)
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), period.AccountID)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}
	if !visibleTo(r, account.OwnerID) {
		writeError(w, http.StatusNotFound, "failed to get period", domain.ErrPeriodNotFound.Error())
		return
	}

	items, err := h.accountUC.ListPeriodItems(r.Context(), period.ID, parseIntQuery(r, "limit", 100), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list line items", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListLineItemsResponse{
		Items: dto.LineItemsFromDomain(items),
		Total: int64(len(items)),
	})
}

// Reconcile compares an account's period totals with its line items and,
// when asked to, repairs the drift.
func (h *AccountHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if h.reconcileUC == nil {
		writeError(w, http.StatusNotImplemented, "reconciliation is not available", "")
		return
	}

	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	var req dto.ReconcileRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	result, err := h.reconcileUC.ReconcileAccount(r.Context(), account.ID, req.Repair)
	if err != nil {
		writeDomainError(w, "failed to reconcile account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

func (h *AccountHandler) loadAccount(w http.ResponseWriter, r *http.Request) (*domain.Account, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return nil, false
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return nil, false
	}
	if !visibleTo(r, account.OwnerID) {
		writeError(w, http.StatusNotFound, "failed to get account", domain.ErrAccountNotFound.Error())
		return nil, false
	}

	return account, true
}
