package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/store"
	"github.com/campwise/glamp-api/internal/tax"
)

// PricingDetails is the full staff-facing price breakdown of a booking. The
// presented tax is always recomputed from the resolver against the current
// invoice flag and shown alongside the stored column, so a stale stored value
// is visible instead of silently repeated.
type PricingDetails struct {
	BookingID          string          `json:"bookingId"`
	Reference          string          `json:"reference"`
	Status             string          `json:"status"`
	PaymentStatus      string          `json:"paymentStatus"`
	TaxInvoiceRequired bool            `json:"taxInvoiceRequired"`
	VoucherCode        *string         `json:"voucherCode"`
	Tents              []TentDetail    `json:"tents"`
	MenuProducts       []ProductDetail `json:"menuProducts"`
	AdditionalCosts    []CostDetail    `json:"additionalCosts"`
	Totals             TotalsView      `json:"totals"`
}

// TentDetail presents one tent stay with its priced parameter lines.
type TentDetail struct {
	ID       string       `json:"id"`
	ItemID   string       `json:"itemId"`
	ItemName string       `json:"itemName"`
	CheckIn  time.Time    `json:"checkIn"`
	CheckOut time.Time    `json:"checkOut"`
	Nights   int          `json:"nights"`
	Lines    []LineDetail `json:"lines"`
	Subtotal int64        `json:"subtotal"`
	Voucher  *string      `json:"voucher"`
	Discount int64        `json:"discount"`
	Total    int64        `json:"total"`
}

// LineDetail presents one (parameter, quantity) accommodation line.
type LineDetail struct {
	ParameterID string `json:"parameterId"`
	PricingMode string `json:"pricingMode"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	Total       int64  `json:"total"`
}

// ProductDetail presents one add-on line.
type ProductDetail struct {
	ID         string     `json:"id"`
	TentID     *string    `json:"tentId"`
	Name       string     `json:"name"`
	ServeDate  *time.Time `json:"serveDate"`
	Quantity   int32      `json:"quantity"`
	UnitPrice  int64      `json:"unitPrice"`
	Overridden bool       `json:"overridden"`
	LineTotal  int64      `json:"lineTotal"`
	Voucher    *string    `json:"voucher"`
	Discount   int64      `json:"discount"`
	Total      int64      `json:"total"`
}

// CostDetail presents one staff-added cost line.
type CostDetail struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Quantity   int32  `json:"quantity"`
	UnitPrice  int64  `json:"unitPrice"`
	LineTotal  int64  `json:"lineTotal"`
	TaxRateBps int32  `json:"taxRateBps"`
	Tax        int64  `json:"tax"`
}

// TotalsView distinguishes the stored tax column from the freshly resolved one.
type TotalsView struct {
	SubtotalBeforeDiscounts int64 `json:"subtotalBeforeDiscounts"`
	LineDiscounts           int64 `json:"lineDiscounts"`
	Subtotal                int64 `json:"subtotal"`
	StoredTax               int64 `json:"storedTax"`
	PresentedTax            int64 `json:"presentedTax"`
	BookingDiscount         int64 `json:"bookingDiscount"`
	Total                   int64 `json:"total"`
	DepositDue              int64 `json:"depositDue"`
	BalanceDue              int64 `json:"balanceDue"`
}

// Details loads a booking and maps it to the staff-facing breakdown.
func (s *Service) Details(ctx context.Context, bookingID string) (PricingDetails, error) {
	id, err := toUUID(bookingID)
	if err != nil {
		return PricingDetails{}, fmt.Errorf("%w: invalid id", ErrNotFound)
	}
	b, err := s.Q.GetBooking(ctx, id)
	if err != nil {
		if store.IsNoRows(err) {
			return PricingDetails{}, ErrNotFound
		}
		return PricingDetails{}, err
	}
	tents, products, costs, err := s.loadLines(ctx, s.Q, b.ID)
	if err != nil {
		return PricingDetails{}, err
	}
	return BuildDetails(b, s.Taxes, tents, products, costs), nil
}

// BuildDetails is the pure read transform behind the pricing endpoint.
func BuildDetails(b store.Booking, taxes tax.Resolver, tents []TentLine, products []ProductLine, costs []store.AdditionalCost) PricingDetails {
	totals := ComputeTotals(b, taxes, tents, products, costs)

	out := PricingDetails{
		BookingID:          uuidStr(b.ID),
		Reference:          b.Reference,
		Status:             b.Status,
		PaymentStatus:      string(b.PaymentStatus),
		TaxInvoiceRequired: b.TaxInvoiceRequired,
		VoucherCode:        textPtr(b.VoucherCode),
		Tents:              make([]TentDetail, 0, len(tents)),
		MenuProducts:       make([]ProductDetail, 0, len(products)),
		AdditionalCosts:    make([]CostDetail, 0, len(costs)),
	}

	for _, tent := range tents {
		accom := tent.Accommodation()
		discount := clampDiscount(tent.Tent.DiscountAmount, accom)
		td := TentDetail{
			ID:       uuidStr(tent.Tent.ID),
			ItemID:   uuidStr(tent.Tent.ItemID),
			ItemName: tent.ItemName,
			CheckIn:  tent.Tent.CheckIn.Time,
			CheckOut: tent.Tent.CheckOut.Time,
			Nights:   nightsBetween(tent.Tent.CheckIn.Time, tent.Tent.CheckOut.Time),
			Lines:    make([]LineDetail, 0, len(tent.Items)),
			Subtotal: accom,
			Voucher:  textPtr(tent.Tent.VoucherCode),
			Discount: discount,
			Total:    accom - discount,
		}
		for _, it := range tent.Items {
			td.Lines = append(td.Lines, LineDetail{
				ParameterID: uuidStr(it.ParameterID),
				PricingMode: string(it.PricingMode),
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				Total:       it.TotalPrice,
			})
		}
		out.Tents = append(out.Tents, td)
	}

	for _, p := range products {
		line := p.Product.LineTotal()
		discount := clampDiscount(p.Product.DiscountAmount, line)
		out.MenuProducts = append(out.MenuProducts, ProductDetail{
			ID:         uuidStr(p.Product.ID),
			TentID:     uuidPtr(p.Product.TentID),
			Name:       p.Product.Name,
			ServeDate:  datePtr(p.Product.ServeDate),
			Quantity:   p.Product.Quantity,
			UnitPrice:  p.Product.UnitPrice,
			Overridden: p.Product.SubtotalOverride.Valid,
			LineTotal:  line,
			Voucher:    textPtr(p.Product.VoucherCode),
			Discount:   discount,
			Total:      line - discount,
		})
	}

	for _, c := range costs {
		line := c.LineTotal()
		out.AdditionalCosts = append(out.AdditionalCosts, CostDetail{
			ID:         uuidStr(c.ID),
			Label:      c.Label,
			Quantity:   c.Quantity,
			UnitPrice:  c.UnitPrice,
			LineTotal:  line,
			TaxRateBps: c.TaxRateBps,
			Tax:        taxes.Line(b.TaxInvoiceRequired, line, pgtype.Int4{Int32: c.TaxRateBps, Valid: true}),
		})
	}

	out.Totals = TotalsView{
		SubtotalBeforeDiscounts: totals.Accommodation + totals.Menu + totals.AdditionalCosts,
		LineDiscounts:           totals.LineDiscounts,
		Subtotal:                totals.Subtotal,
		StoredTax:               b.TaxAmount,
		PresentedTax:            totals.Tax,
		BookingDiscount:         totals.Discount,
		Total:                   totals.Subtotal + totals.Tax - totals.Discount,
		DepositDue:              b.DepositDue,
		BalanceDue:              b.BalanceDue,
	}
	return out
}

func nightsBetween(checkIn, checkOut time.Time) int {
	n := int(checkOut.Sub(checkIn).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

func uuidStr(v pgtype.UUID) string {
	if !v.Valid {
		return ""
	}
	return uuid.UUID(v.Bytes).String()
}

func uuidPtr(v pgtype.UUID) *string {
	if !v.Valid {
		return nil
	}
	s := uuid.UUID(v.Bytes).String()
	return &s
}

func textPtr(v pgtype.Text) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func datePtr(v pgtype.Date) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
