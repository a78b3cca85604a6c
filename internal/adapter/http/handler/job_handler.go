package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// maxPayloadBytes bounds a job payload. Files travel by storage location,
// never inline.
const maxPayloadBytes = 1 << 20

// JobService defines the behavior needed by JobHandler.
type JobService interface {
	Submit(ctx context.Context, input usecase.SubmitJobInput) (*domain.Job, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
	Cancel(ctx context.Context, id string) (*domain.Job, error)
	ListErrors(ctx context.Context, id string, limit, offset int) ([]*domain.JobError, error)
}

// JobHandler handles job submission and status requests.
type JobHandler struct {
	jobUC JobService
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobUC JobService) *JobHandler {
	return &JobHandler{jobUC: jobUC}
}

// Submit stores a job of the kind named in the path and queues it. The body
// is the job payload.
func (h *JobHandler) Submit(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(payload) > 0 && !json.Valid(payload) {
		writeError(w, http.StatusBadRequest, "invalid request body", "payload is not valid JSON")
		return
	}

	job, err := h.jobUC.Submit(r.Context(), usecase.SubmitJobInput{
		OwnerID: owner,
		Type:    domain.JobType(chi.URLParam(r, "kind")),
		Payload: payload,
	})
	if err != nil {
		writeDomainError(w, "failed to submit job", err)
		return
	}

	w.Header().Set("Location", "/api/v1/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, dto.JobFromDomain(job))
}

// Get returns a job with its latest progress.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.JobFromDomain(job))
}

// ListErrors returns a page of a job's error log.
func (h *JobHandler) ListErrors(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	errs, err := h.jobUC.ListErrors(r.Context(), job.ID, parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, "failed to list job errors", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListJobErrorsResponse{
		Errors: dto.JobErrorsFromDomain(errs),
		Total:  int64(len(errs)),
	})
}

// Cancel cancels a job that has not started yet.
func (h *JobHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	cancelled, err := h.jobUC.Cancel(r.Context(), job.ID)
	if err != nil {
		writeDomainError(w, "failed to cancel job", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.JobFromDomain(cancelled))
}

func (h *JobHandler) loadJob(w http.ResponseWriter, r *http.Request) (*domain.Job, bool) {
	job, err := h.jobUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get job", err)
		return nil, false
	}
	if !visibleTo(r, job.OwnerID) {
		writeError(w, http.StatusNotFound, "failed to get job", domain.ErrJobNotFound.Error())
		return nil, false
	}
	return job, true
}
