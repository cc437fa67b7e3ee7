package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/guardlink/guardlink-backend/internal/verification/domain"
	"github.com/guardlink/guardlink-backend/internal/verification/service"
	"github.com/guardlink/guardlink-backend/pkg/errors"
	"github.com/guardlink/guardlink-backend/pkg/httputil"
	"github.com/guardlink/guardlink-backend/pkg/logger"
)

const maxUploadSize = 10 << 20 // 10MB

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// verifyForm is the required multipart field set of a verification request
type verifyForm struct {
	AgentID    string `validate:"required"`
	DocumentID string `validate:"required"`
}

// Handler handles HTTP requests for document verification
type Handler struct {
	service *service.VerificationService
	log     *logger.Logger
}

// NewHandler creates a new verification handler
func NewHandler(svc *service.VerificationService, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		log:     log,
	}
}

// Routes mounts the verification routes
func (h *Handler) Routes(r chi.Router) {
	r.Route("/verifications", func(r chi.Router) {
		r.Post("/", h.Verify)
		r.Get("/pending", h.ListPending)
		r.Get("/stats", h.Stats)
		r.Get("/{id}", h.GetResult)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
	})
}

// Verify handles POST /verifications
// Accepts multipart form with:
// - file: the document image (JPEG or PNG)
// - document_type: id_card, passport, driving_license, aadhaar or pan
// - agent_id: the field agent the document belongs to
// - document_id: caller-side document reference
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.Error(w, errors.BadRequest("file too large or invalid multipart form"))
		return
	}

	form := verifyForm{
		AgentID:    r.FormValue("agent_id"),
		DocumentID: r.FormValue("document_id"),
	}
	if err := httputil.Validate(form); err != nil {
		httputil.Error(w, err)
		return
	}

	// Unknown document types are not rejected here; the pipeline falls
	// back to the generic ID card rules.
	docType := domain.DocumentType(r.FormValue("document_type"))

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.BadRequest("missing file in request"))
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		httputil.Error(w, errors.Internal("failed to read uploaded file"))
		return
	}

	result, report, err := h.service.Verify(r.Context(), service.VerifyRequest{
		Image:        imageData,
		Filename:     header.Filename,
		DocumentType: docType,
		AgentID:      form.AgentID,
		DocumentID:   form.DocumentID,
	})
	if err != nil {
		h.log.Error().Err(err).Str("document_id", form.DocumentID).Msg("verification failed")
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, map[string]interface{}{
		"id":     result.ID,
		"report": report,
	})
}

// GetResult handles GET /verifications/{id}
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.service.GetResult(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, resultPayload(result))
}

// ListPending handles GET /verifications/pending
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	results, err := h.service.ListPending(r.Context(), limit, offset)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	payload := make([]map[string]interface{}, 0, len(results))
	for _, res := range results {
		payload = append(payload, resultPayload(res))
	}

	httputil.JSON(w, http.StatusOK, payload)
}

// Stats handles GET /verifications/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}

// decisionRequest is the body of approve/reject calls
type decisionRequest struct {
	Notes string `json:"notes"`
}

// Approve handles POST /verifications/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve)
}

// Reject handles POST /verifications/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, decidedBy, notes string) (*domain.VerificationResult, error)) {
	id := chi.URLParam(r, "id")

	var req decisionRequest
	if r.ContentLength > 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
	}

	decidedBy := httputil.GetUserID(r.Context())
	if decidedBy == "" {
		decidedBy = r.Header.Get("X-User-ID")
	}

	result, err := fn(r.Context(), id, decidedBy, req.Notes)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, resultPayload(result))
}

// resultPayload exposes the stored record with the audit report inlined
func resultPayload(res *domain.VerificationResult) map[string]interface{} {
	payload := map[string]interface{}{
		"id":              res.ID,
		"agent_id":        res.AgentID,
		"document_id":     res.DocumentID,
		"document_type":   res.DocumentType,
		"risk_score":      res.RiskScore,
		"risk_level":      res.RiskLevel,
		"recommendation":  res.Recommendation,
		"decision_status": res.DecisionStatus,
		"verified_at":     res.VerifiedAt,
		"created_at":      res.CreatedAt,
	}
	if res.DecidedBy != nil {
		payload["decided_by"] = *res.DecidedBy
	}
	if res.DecisionNotes != nil {
		payload["decision_notes"] = *res.DecisionNotes
	}
	if res.DecidedAt != nil {
		payload["decided_at"] = *res.DecidedAt
	}
	if len(res.Report) > 0 {
		payload["report"] = json.RawMessage(res.Report)
	}
	return payload
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxPageSize {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
