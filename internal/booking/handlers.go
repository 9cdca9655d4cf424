package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campwise/glamp-api/internal/common"
	"github.com/campwise/glamp-api/internal/pricing"
	"github.com/campwise/glamp-api/internal/store"
	"github.com/campwise/glamp-api/internal/voucher"
)

// Handler wires the booking service to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Get returns the booking summary row.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": presentBooking(b)})
}

// Pricing returns the full price breakdown with freshly resolved tax.
func (h *Handler) Pricing(w http.ResponseWriter, r *http.Request) {
	details, err := h.Svc.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": details})
}

// History returns the booking's audit trail.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"actorId":           row.ActorID,
			"fromStatus":        row.FromStatus,
			"toStatus":          row.ToStatus,
			"fromPaymentStatus": row.FromPaymentStatus,
			"toPaymentStatus":   row.ToPaymentStatus,
			"description":       row.Description,
			"createdAt":         row.CreatedAt.Time,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Recalculate re-derives the booking's money columns on demand.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.Recalculate(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, res)
}

type addMenuProductRequest struct {
	TentID     string  `json:"tentId"`
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	ServeDate  *string `json:"serveDate"`
	Quantity   int32   `json:"quantity" validate:"required,gt=0"`
	UnitPrice  *int64  `json:"unitPrice"`
}

// AddMenuProduct appends an add-on line.
func (h *Handler) AddMenuProduct(w http.ResponseWriter, r *http.Request) {
	var req addMenuProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := AddMenuProductInput{
		TentID:     req.TentID,
		MenuItemID: req.MenuItemID,
		Name:       req.Name,
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
	}
	if req.ServeDate != nil {
		d, err := time.Parse("2006-01-02", *req.ServeDate)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid serveDate", nil)
			return
		}
		in.ServeDate = &d
	}
	res, err := h.Svc.AddMenuProduct(r.Context(), chi.URLParam(r, "id"), in, actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, res)
}

type patchMenuProductRequest struct {
	ServeDate        *string `json:"serveDate"`
	Quantity         *int32  `json:"quantity"`
	UnitPrice        *int64  `json:"unitPrice"`
	SubtotalOverride *int64  `json:"subtotalOverride"`
	ClearOverride    bool    `json:"clearOverride"`
	VoucherCode      *string `json:"voucherCode"`
	ClearVoucher     bool    `json:"clearVoucher"`
}

// UpdateMenuProduct patches an add-on line.
func (h *Handler) UpdateMenuProduct(w http.ResponseWriter, r *http.Request) {
	var req patchMenuProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	patch := MenuProductPatch{
		Quantity:         req.Quantity,
		UnitPrice:        req.UnitPrice,
		SubtotalOverride: req.SubtotalOverride,
		ClearOverride:    req.ClearOverride,
		VoucherCode:      req.VoucherCode,
		ClearVoucher:     req.ClearVoucher,
	}
	if req.ServeDate != nil {
		d, err := time.Parse("2006-01-02", *req.ServeDate)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid serveDate", nil)
			return
		}
		patch.ServeDate = &d
	}
	res, err := h.Svc.UpdateMenuProduct(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "lineId"), patch, actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, res)
}

// RemoveMenuProduct deletes an add-on line.
func (h *Handler) RemoveMenuProduct(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.RemoveMenuProduct(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "lineId"), actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, res)
}

type voucherRequest struct {
	Code string `json:"code" validate:"required"`
}

// ApplyTentVoucher attaches an accommodation voucher to a tent.
func (h *Handler) ApplyTentVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.Svc.ApplyTentVoucher(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "tentId"), req.Code, actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, res)
}

// RemoveTentVoucher clears a tent's voucher.
func (h *Handler) RemoveTentVoucher(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.RemoveTentVoucher(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "tentId"), actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, res)
}

// ApplyBookingVoucher attaches a whole-booking voucher.
func (h *Handler) ApplyBookingVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.Svc.ApplyBookingVoucher(r.Context(), chi.URLParam(r, "id"), req.Code, actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, res)
}

// RemoveBookingVoucher clears the whole-booking voucher.
func (h *Handler) RemoveBookingVoucher(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.RemoveBookingVoucher(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, res)
}

type additionalCostRequest struct {
	Label      string `json:"label" validate:"required"`
	Quantity   int32  `json:"quantity" validate:"required,gt=0"`
	UnitPrice  int64  `json:"unitPrice" validate:"required"`
	TaxRateBps *int32 `json:"taxRateBps"`
}

// AddAdditionalCost appends a staff cost line.
func (h *Handler) AddAdditionalCost(w http.ResponseWriter, r *http.Request) {
	var req additionalCostRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.Svc.AddAdditionalCost(r.Context(), chi.URLParam(r, "id"), AddAdditionalCostInput{
		Label:      req.Label,
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
		TaxRateBps: req.TaxRateBps,
	}, actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, res)
}

// RemoveAdditionalCost deletes a staff cost line.
func (h *Handler) RemoveAdditionalCost(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.RemoveAdditionalCost(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "costId"), actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, res)
}

type taxInvoiceRequest struct {
	Required bool `json:"required"`
}

// SetTaxInvoice toggles the tax invoice flag and recalculates.
func (h *Handler) SetTaxInvoice(w http.ResponseWriter, r *http.Request) {
	var req taxInvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.Svc.SetTaxInvoice(r.Context(), chi.URLParam(r, "id"), req.Required, actor(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, res)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(v); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
			return false
		}
	}
	return true
}

func (h *Handler) writeResult(w http.ResponseWriter, res Result) {
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"booking":         presentBooking(res.Booking),
		"oldTotal":        res.OldTotal,
		"newTotal":        res.NewTotal,
		"priceDifference": res.Delta,
	}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var cons *pricing.ConsistencyError
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrEditNotAllowed):
		common.JSONError(w, http.StatusConflict, common.CodeEditNotAllowed, err.Error(), nil)
	case errors.Is(err, voucher.ErrScopeMismatch):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeScopeMismatch, err.Error(), nil)
	case errors.Is(err, voucher.ErrInvalidVoucher):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeInvalidVoucher, err.Error(), nil)
	case errors.As(err, &cons):
		common.JSONError(w, http.StatusInternalServerError, common.CodeInconsistent, err.Error(), nil)
	default:
		common.RenderError(w, err)
	}
}

func presentBooking(b store.Booking) map[string]any {
	return map[string]any{
		"id":                 uuidStr(b.ID),
		"reference":          b.Reference,
		"customerName":       textPtr(b.CustomerName),
		"customerEmail":      textPtr(b.CustomerEmail),
		"status":             b.Status,
		"paymentStatus":      b.PaymentStatus,
		"taxInvoiceRequired": b.TaxInvoiceRequired,
		"voucherCode":        textPtr(b.VoucherCode),
		"subtotalAmount":     b.SubtotalAmount,
		"taxAmount":          b.TaxAmount,
		"discountAmount":     b.DiscountAmount,
		"totalAmount":        b.TotalAmount,
		"depositDue":         b.DepositDue,
		"balanceDue":         b.BalanceDue,
		"updatedAt":          b.UpdatedAt.Time,
	}
}

func actor(r *http.Request) string {
	id, _ := common.ActorID(r.Context())
	return id
}
