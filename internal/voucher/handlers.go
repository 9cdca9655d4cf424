package voucher

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/common"
	"github.com/campwise/glamp-api/internal/store"
)

// Handler exposes administrative voucher management endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type voucherPayload struct {
	Code        string     `json:"code" validate:"required"`
	Kind        string     `json:"kind" validate:"required,oneof=percentage fixed_amount"`
	Value       int64      `json:"value" validate:"required,gt=0"`
	IsActive    *bool      `json:"isActive"`
	Status      string     `json:"status"`
	ValidFrom   *time.Time `json:"validFrom"`
	ValidTo     *time.Time `json:"validTo"`
	Application string     `json:"application" validate:"required,oneof=accommodation_only menu_only whole_booking"`
	ZoneID      *string    `json:"zoneId"`
	ItemID      *string    `json:"itemId"`
}

type previewRequest struct {
	Code   string  `json:"code" validate:"required"`
	Scope  string  `json:"scope" validate:"required,oneof=accommodation menu booking"`
	Base   int64   `json:"base" validate:"gte=0"`
	ZoneID *string `json:"zoneId"`
	ItemID *string `json:"itemId"`
}

// Create inserts a new voucher rule.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "voucher service not configured", nil)
		return
	}
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	params, err := buildParams(payload.Code, payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
		return
	}
	v, err := h.Svc.Create(r.Context(), params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "voucher code already exists", nil)
			return
		}
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": presentVoucher(v)})
}

// Update mutates an existing voucher identified by code.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "voucher service not configured", nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "code is required", nil)
		return
	}
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	params, err := buildParams(code, payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
		return
	}
	v, err := h.Svc.Update(r.Context(), params)
	if err != nil {
		if errors.Is(err, ErrInvalidVoucher) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "voucher not found", nil)
			return
		}
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": presentVoucher(v)})
}

// List returns every voucher rule.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "voucher service not configured", nil)
		return
	}
	vouchers, err := h.Svc.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(vouchers))
	for _, v := range vouchers {
		out = append(out, presentVoucher(v))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Preview evaluates a voucher against a scope context without touching any booking.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "voucher service not configured", nil)
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
			return
		}
	}
	target := Target{Scope: Scope(req.Scope), Base: req.Base}
	var err error
	if target.ZoneID, err = optionalUUID(req.ZoneID); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid zoneId", nil)
		return
	}
	if target.ItemID, err = optionalUUID(req.ItemID); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid itemId", nil)
		return
	}
	d, err := h.Svc.Evaluate(r.Context(), req.Code, target)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request) (voucherPayload, bool) {
	var payload voucherPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return payload, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
			return payload, false
		}
	}
	return payload, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrScopeMismatch):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeScopeMismatch, err.Error(), nil)
	case errors.Is(err, ErrInvalidVoucher):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeInvalidVoucher, err.Error(), nil)
	default:
		common.RenderError(w, err)
	}
}

func buildParams(code string, payload voucherPayload) (store.CreateVoucherParams, error) {
	params := store.CreateVoucherParams{
		Code:        strings.TrimSpace(code),
		Kind:        store.DiscountKind(payload.Kind),
		Value:       payload.Value,
		IsActive:    true,
		Status:      strings.TrimSpace(payload.Status),
		ValidFrom:   timeToNullable(payload.ValidFrom),
		ValidTo:     timeToNullable(payload.ValidTo),
		Application: store.ApplicationType(payload.Application),
	}
	if payload.IsActive != nil {
		params.IsActive = *payload.IsActive
	}
	var err error
	if params.ZoneID, err = optionalUUID(payload.ZoneID); err != nil {
		return store.CreateVoucherParams{}, errors.New("invalid zoneId")
	}
	if params.ItemID, err = optionalUUID(payload.ItemID); err != nil {
		return store.CreateVoucherParams{}, errors.New("invalid itemId")
	}
	return params, nil
}

func presentVoucher(v store.Voucher) map[string]any {
	return map[string]any{
		"id":          uuidOrNil(v.ID),
		"code":        v.Code,
		"kind":        v.Kind,
		"value":       v.Value,
		"isActive":    v.IsActive,
		"status":      v.Status,
		"validFrom":   nullableTime(v.ValidFrom),
		"validTo":     nullableTime(v.ValidTo),
		"application": v.Application,
		"zoneId":      uuidOrNil(v.ZoneID),
		"itemId":      uuidOrNil(v.ItemID),
	}
}

func optionalUUID(raw *string) (pgtype.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return pgtype.UUID{}, nil
	}
	parsed, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func uuidOrNil(v pgtype.UUID) *string {
	if !v.Valid {
		return nil
	}
	s := uuid.UUID(v.Bytes).String()
	return &s
}

func timeToNullable(v *time.Time) pgtype.Timestamptz {
	if v == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *v, Valid: true}
}

func nullableTime(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
