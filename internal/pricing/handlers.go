package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/common"
	"github.com/campwise/glamp-api/internal/obs"
	"github.com/campwise/glamp-api/internal/store"
	"github.com/campwise/glamp-api/internal/voucher"
)

// ItemGetter resolves the item under quote, for voucher scope checks.
type ItemGetter interface {
	GetItem(ctx context.Context, id pgtype.UUID) (store.Item, error)
}

// Handler exposes the stay quote endpoint.
type Handler struct {
	Calc     *Calculator
	Vouchers *voucher.Service
	Items    ItemGetter
	Validate *validator.Validate
	Currency string
}

type quoteRequest struct {
	ItemID      string         `json:"itemId" validate:"required"`
	CheckIn     string         `json:"checkIn" validate:"required"`
	CheckOut    string         `json:"checkOut" validate:"required"`
	Parameters  map[string]int `json:"parameters" validate:"required,min=1"`
	VoucherCode string         `json:"voucherCode"`
}

// Quote prices a prospective stay and optionally previews a voucher against
// the accommodation total.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Calc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "quote calculator not configured", nil)
		return
	}
	var req quoteRequest
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
	itemID, err := uuid.Parse(strings.TrimSpace(req.ItemID))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid itemId", nil)
		return
	}
	checkIn, err := time.Parse("2006-01-02", req.CheckIn)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid checkIn", nil)
		return
	}
	checkOut, err := time.Parse("2006-01-02", req.CheckOut)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid checkOut", nil)
		return
	}
	quantities := make(map[uuid.UUID]int, len(req.Parameters))
	for raw, qty := range req.Parameters {
		paramID, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid parameter id", nil)
			return
		}
		quantities[paramID] = qty
	}

	bd, err := h.Calc.Quote(r.Context(), itemID, checkIn, checkOut, quantities)
	if err != nil {
		h.countQuote("error")
		var missing *MissingPricingError
		var cons *ConsistencyError
		switch {
		case errors.As(err, &missing):
			common.JSONError(w, http.StatusUnprocessableEntity, common.CodeMissingRate, missing.Error(), map[string]any{
				"parameterIds": missing.ParameterIDs,
			})
		case errors.As(err, &cons):
			common.JSONError(w, http.StatusInternalServerError, common.CodeInconsistent, cons.Error(), nil)
		default:
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
		}
		return
	}

	data := map[string]any{
		"breakdown": bd,
		"currency":  h.Currency,
		"total":     bd.Accommodation,
	}
	if strings.TrimSpace(req.VoucherCode) != "" && h.Vouchers != nil {
		target := voucher.Target{Scope: voucher.ScopeAccommodation, Base: bd.Accommodation}
		if h.Items != nil {
			item, err := h.Items.GetItem(r.Context(), pgtype.UUID{Bytes: itemID, Valid: true})
			if err == nil {
				target.ZoneID = item.ZoneID
				target.ItemID = item.ID
			}
		}
		d, err := h.Vouchers.Evaluate(r.Context(), req.VoucherCode, target)
		if err != nil {
			h.countQuote("voucher_rejected")
			switch {
			case errors.Is(err, voucher.ErrScopeMismatch):
				common.JSONError(w, http.StatusUnprocessableEntity, common.CodeScopeMismatch, err.Error(), nil)
			case errors.Is(err, voucher.ErrInvalidVoucher):
				common.JSONError(w, http.StatusUnprocessableEntity, common.CodeInvalidVoucher, err.Error(), nil)
			default:
				common.RenderError(w, err)
			}
			return
		}
		data["discount"] = d
		data["total"] = bd.Accommodation - d.Amount
	}

	h.countQuote("ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": data})
}

func (h *Handler) countQuote(result string) {
	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues(result).Inc()
	}
}
