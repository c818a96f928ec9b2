package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockerhq/quality/internal/domain/quality"
	"github.com/stockerhq/quality/internal/infra/metrics"
	"github.com/stockerhq/quality/internal/infra/report"
)

// Handler exposes the quality-control API. String forms of enums live only
// here; the domain package works with typed values.
//
// The tenant comes from the X-Tenant-ID header (resolution/authz is the
// gateway's job), the acting user from X-User-Name.
type Handler struct {
	log *slog.Logger
	svc *quality.Service
}

func NewHandler(log *slog.Logger, svc *quality.Service) *Handler {
	return &Handler{log: log, svc: svc}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/quality-controls", h.create)
	mux.HandleFunc("GET /api/quality-controls", h.list)
	mux.HandleFunc("GET /api/quality-controls/stats", h.stats)
	mux.HandleFunc("GET /api/quality-controls/export", h.export)
	mux.HandleFunc("GET /api/quality-controls/by-number/{qcNumber}", h.getByNumber)
	mux.HandleFunc("GET /api/quality-controls/{id}", h.get)
	mux.HandleFunc("PATCH /api/quality-controls/{id}", h.patch)
	mux.HandleFunc("DELETE /api/quality-controls/{id}", h.delete)
	mux.HandleFunc("POST /api/quality-controls/{id}/start", h.start)
	mux.HandleFunc("POST /api/quality-controls/{id}/complete", h.complete)
	mux.HandleFunc("POST /api/quality-controls/{id}/rejection", h.rejection)
	mux.HandleFunc("POST /api/quality-controls/{id}/action", h.applyAction)
	mux.HandleFunc("GET /api/quality-controls/{id}/actions", h.actionHistory)
	mux.HandleFunc("POST /api/quality-controls/{id}/cancel", h.cancel)
}

// --- request/response DTOs ---

type createRequest struct {
	ProductID           int64   `json:"productId"`
	QcType              string  `json:"qcType"`
	InspectedQuantity   string  `json:"inspectedQuantity"`
	Unit                string  `json:"unit"`
	LotNumber           string  `json:"lotNumber,omitempty"`
	SupplierID          *int64  `json:"supplierId,omitempty"`
	PurchaseOrderID     *int64  `json:"purchaseOrderId,omitempty"`
	PurchaseOrderNumber string  `json:"purchaseOrderNumber,omitempty"`
	WarehouseID         *int64  `json:"warehouseId,omitempty"`
	SampleQuantity      *string `json:"sampleQuantity,omitempty"`
}

type startRequest struct {
	InspectorName   string  `json:"inspectorName"`
	InspectorUserID *string `json:"inspectorUserId,omitempty"`
}

type completeRequest struct {
	Result           string  `json:"result"`
	AcceptedQuantity string  `json:"acceptedQuantity"`
	RejectedQuantity string  `json:"rejectedQuantity"`
	QualityScore     *string `json:"qualityScore,omitempty"`
	QualityGrade     string  `json:"qualityGrade,omitempty"`
}

type rejectionRequest struct {
	Reason   string `json:"reason"`
	Category string `json:"category"`
}

type actionRequest struct {
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type patchRequest struct {
	LotNumber            *string `json:"lotNumber,omitempty"`
	SupplierID           *int64  `json:"supplierId,omitempty"`
	PurchaseOrderID      *int64  `json:"purchaseOrderId,omitempty"`
	PurchaseOrderNumber  *string `json:"purchaseOrderNumber,omitempty"`
	WarehouseID          *int64  `json:"warehouseId,omitempty"`
	SampleQuantity       *string `json:"sampleQuantity,omitempty"`
	DurationMinutes      *int    `json:"inspectionDurationMinutes,omitempty"`
	Location             *string `json:"inspectionLocation,omitempty"`
	Standard             *string `json:"inspectionStandard,omitempty"`
	InspectionNotes      *string `json:"inspectionNotes,omitempty"`
	InternalNotes        *string `json:"internalNotes,omitempty"`
	SupplierNotification *string `json:"supplierNotification,omitempty"`
}

type recordResponse struct {
	ID                  int64   `json:"id"`
	QcNumber            string  `json:"qcNumber"`
	QcType              string  `json:"qcType"`
	Status              string  `json:"status"`
	Result              string  `json:"result"`
	InspectionDate      string  `json:"inspectionDate"`
	ProductID           int64   `json:"productId"`
	LotNumber           string  `json:"lotNumber,omitempty"`
	SupplierID          *int64  `json:"supplierId,omitempty"`
	PurchaseOrderID     *int64  `json:"purchaseOrderId,omitempty"`
	PurchaseOrderNumber string  `json:"purchaseOrderNumber,omitempty"`
	WarehouseID         *int64  `json:"warehouseId,omitempty"`
	InspectedQuantity   string  `json:"inspectedQuantity"`
	AcceptedQuantity    string  `json:"acceptedQuantity"`
	RejectedQuantity    string  `json:"rejectedQuantity"`
	SampleQuantity      *string `json:"sampleQuantity,omitempty"`
	Unit                string  `json:"unit"`
	QualityScore        *string `json:"qualityScore,omitempty"`
	QualityGrade        string  `json:"qualityGrade,omitempty"`
	RejectionReason     string  `json:"rejectionReason,omitempty"`
	RejectionCategory   *string `json:"rejectionCategory,omitempty"`
	RecommendedAction   *string `json:"recommendedAction,omitempty"`
	AppliedAction       *string `json:"appliedAction,omitempty"`
	ActionDescription   string  `json:"actionDescription,omitempty"`
	ActionDate          *string `json:"actionDate,omitempty"`
	InspectorName       string  `json:"inspectorName,omitempty"`
	InspectorUserID     *string `json:"inspectorUserId,omitempty"`
	DurationMinutes     *int    `json:"inspectionDurationMinutes,omitempty"`
	Location            string  `json:"inspectionLocation,omitempty"`
	Standard            string  `json:"inspectionStandard,omitempty"`
	InspectionNotes     string  `json:"inspectionNotes,omitempty"`
	InternalNotes       string  `json:"internalNotes,omitempty"`
	CreatedDate         string  `json:"createdDate"`
	UpdatedDate         string  `json:"updatedDate"`
	Version             int64   `json:"version"`
}

func toResponse(rec *quality.InspectionRecord) recordResponse {
	resp := recordResponse{
		ID:                  rec.ID,
		QcNumber:            rec.QcNumber,
		QcType:              rec.QcType.String(),
		Status:              rec.Status.String(),
		Result:              rec.Result.String(),
		InspectionDate:      rec.InspectionDate.Format(time.RFC3339),
		ProductID:           rec.ProductID,
		LotNumber:           rec.LotNumber,
		SupplierID:          rec.SupplierID,
		PurchaseOrderID:     rec.PurchaseOrderID,
		PurchaseOrderNumber: rec.PurchaseOrderNumber,
		WarehouseID:         rec.WarehouseID,
		InspectedQuantity:   rec.InspectedQuantity.String(),
		AcceptedQuantity:    rec.AcceptedQuantity.String(),
		RejectedQuantity:    rec.RejectedQuantity.String(),
		Unit:                rec.Unit,
		QualityGrade:        rec.QualityGrade,
		RejectionReason:     rec.RejectionReason,
		ActionDescription:   rec.ActionDescription,
		InspectorName:       rec.InspectorName,
		DurationMinutes:     rec.InspectionDurationMinutes,
		Location:            rec.InspectionLocation,
		Standard:            rec.InspectionStandard,
		InspectionNotes:     rec.InspectionNotes,
		InternalNotes:       rec.InternalNotes,
		CreatedDate:         rec.CreatedDate.Format(time.RFC3339),
		UpdatedDate:         rec.UpdatedDate.Format(time.RFC3339),
		Version:             rec.Version,
	}
	if rec.SampleQuantity != nil {
		s := rec.SampleQuantity.String()
		resp.SampleQuantity = &s
	}
	if rec.QualityScore != nil {
		s := rec.QualityScore.String()
		resp.QualityScore = &s
	}
	if rec.RejectionCategory != nil {
		s := rec.RejectionCategory.String()
		resp.RejectionCategory = &s
	}
	if rec.RecommendedAction != 0 {
		s := rec.RecommendedAction.String()
		resp.RecommendedAction = &s
	}
	if rec.AppliedAction != nil {
		s := rec.AppliedAction.String()
		resp.AppliedAction = &s
	}
	if rec.ActionDate != nil {
		s := rec.ActionDate.Format(time.RFC3339)
		resp.ActionDate = &s
	}
	if rec.InspectorUserID != nil {
		s := rec.InspectorUserID.String()
		resp.InspectorUserID = &s
	}
	return resp
}

// --- handlers ---

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}

	qcType, err := quality.ParseQCType(req.QcType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	qty, err := parseDecimal(req.InspectedQuantity, "inspectedQuantity")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sample, err := parseOptDecimal(req.SampleQuantity, "sampleQuantity")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rec, err := h.svc.Create(r.Context(), tenantID, quality.CreateParams{
		ProductID:           req.ProductID,
		QcType:              qcType,
		InspectedQuantity:   qty,
		Unit:                req.Unit,
		LotNumber:           req.LotNumber,
		SupplierID:          req.SupplierID,
		PurchaseOrderID:     req.PurchaseOrderID,
		PurchaseOrderNumber: req.PurchaseOrderNumber,
		WarehouseID:         req.WarehouseID,
		SampleQuantity:      sample,
		Actor:               actor(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	metrics.InspectionsCreated.Inc()
	h.respond(w, http.StatusCreated, toResponse(rec))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.Get(r.Context(), tenantID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) getByNumber(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.GetByQcNumber(r.Context(), tenantID, r.PathValue("qcNumber"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	recs, err := h.svc.List(r.Context(), tenantID, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]recordResponse, len(recs))
	for i := range recs {
		out[i] = toResponse(&recs[i])
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(r.Context(), tenantID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	byStatus := make(map[string]int64, len(stats.ByStatus))
	for k, v := range stats.ByStatus {
		byStatus[k.String()] = v
	}
	byResult := make(map[string]int64, len(stats.ByResult))
	for k, v := range stats.ByResult {
		byResult[k.String()] = v
	}
	h.respond(w, http.StatusOK, map[string]any{
		"total":     stats.Total,
		"completed": stats.Completed,
		"byStatus":  byStatus,
		"byResult":  byResult,
		"passRate":  stats.PassRate.String(),
	})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	recs, err := h.svc.List(r.Context(), tenantID, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	buf, err := report.BuildRegister(recs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="qc-register.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	var req startRequest
	if !h.decode(w, r, &req) {
		return
	}
	var userID *uuid.UUID
	if req.InspectorUserID != nil {
		u, err := uuid.Parse(*req.InspectorUserID)
		if err != nil {
			h.badRequest(w, "invalid inspectorUserId")
			return
		}
		userID = &u
	}
	rec, err := h.svc.Start(r.Context(), tenantID, id, req.InspectorName, userID, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	var req completeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := quality.ParseResult(req.Result)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	accepted, err := parseDecimal(req.AcceptedQuantity, "acceptedQuantity")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rejected, err := parseDecimal(req.RejectedQuantity, "rejectedQuantity")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	score, err := parseOptDecimal(req.QualityScore, "qualityScore")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rec, err := h.svc.Complete(r.Context(), tenantID, id, quality.CompleteParams{
		Result:           result,
		AcceptedQuantity: accepted,
		RejectedQuantity: rejected,
		QualityScore:     score,
		QualityGrade:     req.QualityGrade,
		Actor:            actor(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	metrics.InspectionsCompleted.WithLabelValues(rec.Result.String()).Inc()
	h.respond(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) rejection(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	var req rejectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	category, err := quality.ParseRejectionCategory(req.Category)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.svc.SetRejection(r.Context(), tenantID, id, req.Reason, category, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) applyAction(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	var req actionRequest
	if !h.decode(w, r, &req) {
		return
	}
	action, err := quality.ParseAction(req.Action)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.svc.ApplyAction(r.Context(), tenantID, id, action, req.Description, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) actionHistory(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	entries, err := h.svc.ActionHistory(r.Context(), tenantID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	type entryResponse struct {
		Action      string `json:"action"`
		Description string `json:"description,omitempty"`
		Actor       string `json:"actor,omitempty"`
		AppliedAt   string `json:"appliedAt"`
	}
	out := make([]entryResponse, len(entries))
	for i, e := range entries {
		out[i] = entryResponse{
			Action:      e.Action.String(),
			Description: e.Description,
			Actor:       e.Actor,
			AppliedAt:   e.AppliedAt.Format(time.RFC3339),
		}
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	var req cancelRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.svc.Cancel(r.Context(), tenantID, id, req.Reason, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	metrics.InspectionsCancelled.Inc()
	h.respond(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	var req patchRequest
	if !h.decode(w, r, &req) {
		return
	}
	sample, err := parseOptDecimal(req.SampleQuantity, "sampleQuantity")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.svc.UpdateDetails(r.Context(), tenantID, id, quality.DetailsPatch{
		LotNumber:            req.LotNumber,
		SupplierID:           req.SupplierID,
		PurchaseOrderID:      req.PurchaseOrderID,
		PurchaseOrderNumber:  req.PurchaseOrderNumber,
		WarehouseID:          req.WarehouseID,
		SampleQuantity:       sample,
		DurationMinutes:      req.DurationMinutes,
		Location:             req.Location,
		Standard:             req.Standard,
		InspectionNotes:      req.InspectionNotes,
		InternalNotes:        req.InternalNotes,
		SupplierNotification: req.SupplierNotification,
	}, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, ok := h.id(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), tenantID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- plumbing ---

func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get("X-Tenant-ID")
	if raw == "" {
		h.badRequest(w, "missing X-Tenant-ID header")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.badRequest(w, "invalid X-Tenant-ID header")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) id(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(w, "invalid record id")
		return 0, false
	}
	return id, true
}

func actor(r *http.Request) string {
	return r.Header.Get("X-User-Name")
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.badRequest(w, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("failed to encode response", "err", err)
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.respond(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// fail maps the domain error taxonomy onto HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quality.ErrValidation):
		h.respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, quality.ErrInvalidOperation):
		h.respond(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, quality.ErrNotFound):
		h.respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, quality.ErrConflict):
		metrics.VersionConflicts.Inc()
		h.respond(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		h.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		h.respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func parseDecimal(raw, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Join(quality.ErrValidation, errors.New("invalid "+field))
	}
	return d, nil
}

func parseOptDecimal(raw *string, field string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := parseDecimal(*raw, field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseFilter(r *http.Request) (quality.Filter, error) {
	var f quality.Filter
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		st, err := quality.ParseStatus(v)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}
	if v := q.Get("result"); v != "" {
		res, err := quality.ParseResult(v)
		if err != nil {
			return f, err
		}
		f.Result = &res
	}
	if v := q.Get("type"); v != "" {
		t, err := quality.ParseQCType(v)
		if err != nil {
			return f, err
		}
		f.QcType = &t
	}
	if v := q.Get("productId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.Join(quality.ErrValidation, errors.New("invalid productId"))
		}
		f.ProductID = &id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.Join(quality.ErrValidation, errors.New("invalid from date"))
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.Join(quality.ErrValidation, errors.New("invalid to date"))
		}
		f.To = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.Join(quality.ErrValidation, errors.New("invalid limit"))
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.Join(quality.ErrValidation, errors.New("invalid offset"))
		}
		f.Offset = n
	}
	return f, nil
}
