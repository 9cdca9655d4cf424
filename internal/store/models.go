package store

import "github.com/jackc/pgx/v5/pgtype"

// PricingMode controls whether a parameter's nightly price multiplies by quantity.
type PricingMode string

const (
	PricingModePerPerson PricingMode = "per_person"
	PricingModePerGroup  PricingMode = "per_group"
)

// EventKind orders rate events by specificity: closures beat specials beat seasonals.
type EventKind string

const (
	EventKindSeasonal EventKind = "seasonal"
	EventKindSpecial  EventKind = "special"
	EventKindClosure  EventKind = "closure"
)

// Recurrence describes how an event's date window repeats.
type Recurrence string

const (
	RecurrenceOneTime Recurrence = "one_time"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
	RecurrenceAlways  Recurrence = "always"
)

// EventPricing selects how an event's rates are derived.
type EventPricing string

const (
	EventPricingBase    EventPricing = "base_price"
	EventPricingNew     EventPricing = "new_price"
	EventPricingDynamic EventPricing = "dynamic"
	EventPricingYield   EventPricing = "yield"
)

// PaymentStatus tracks how much of a booking has been collected.
type PaymentStatus string

const (
	PaymentStatusUnpaid      PaymentStatus = "unpaid"
	PaymentStatusDepositPaid PaymentStatus = "deposit_paid"
	PaymentStatusFullyPaid   PaymentStatus = "fully_paid"
)

// ApplicationType scopes a voucher to a slice of the booking.
type ApplicationType string

const (
	ApplicationAccommodationOnly ApplicationType = "accommodation_only"
	ApplicationMenuOnly          ApplicationType = "menu_only"
	ApplicationWholeBooking      ApplicationType = "whole_booking"
)

// DiscountKind is the voucher value interpretation.
type DiscountKind string

const (
	DiscountKindPercentage  DiscountKind = "percentage"
	DiscountKindFixedAmount DiscountKind = "fixed_amount"
)

// Item is a bookable accommodation unit.
type Item struct {
	ID         pgtype.UUID
	ZoneID     pgtype.UUID
	CategoryID pgtype.UUID
	Name       string
	Stock      int32
	TaxRateBps pgtype.Int4
	CreatedAt  pgtype.Timestamptz
}

// Parameter is a guest-type pricing axis attached to an item.
type Parameter struct {
	ID                pgtype.UUID
	ItemID            pgtype.UUID
	Name              string
	PricingMode       PricingMode
	ControlsInventory bool
	SetsPricing       bool
	PriceRange        bool
}

// Rate is a price for (item, parameter), either base (EventID invalid) or event-scoped.
type Rate struct {
	ID          pgtype.UUID
	ItemID      pgtype.UUID
	ParameterID pgtype.UUID
	EventID     pgtype.UUID
	Amount      int64
}

// RateEvent is a date-scoped rate override.
type RateEvent struct {
	ID            pgtype.UUID
	ItemID        pgtype.UUID
	Kind          EventKind
	PricingType   EventPricing
	StartDate     pgtype.Date
	EndDate       pgtype.Date
	Recurrence    Recurrence
	AdjustPercent pgtype.Int4
	AdjustAmount  pgtype.Int8
	CreatedAt     pgtype.Timestamptz
}

// YieldTier maps an available-stock ceiling to a nightly amount for yield events.
type YieldTier struct {
	ID           pgtype.UUID
	EventID      pgtype.UUID
	StockCeiling int32
	Amount       int64
}

// MenuItem is a sellable add-on product.
type MenuItem struct {
	ID         pgtype.UUID
	Name       string
	UnitPrice  int64
	TaxRateBps pgtype.Int4
}

// Voucher is a discount rule redeemable against a scoped slice of a booking.
type Voucher struct {
	ID          pgtype.UUID
	Code        string
	Kind        DiscountKind
	Value       int64
	IsActive    bool
	Status      string
	ValidFrom   pgtype.Timestamptz
	ValidTo     pgtype.Timestamptz
	Application ApplicationType
	ZoneID      pgtype.UUID
	ItemID      pgtype.UUID
	CreatedAt   pgtype.Timestamptz
}

// Booking is the aggregate root. TotalAmount is a generated column and is
// never written by application code.
type Booking struct {
	ID                 pgtype.UUID
	Reference          string
	CustomerName       pgtype.Text
	CustomerEmail      pgtype.Text
	Status             string
	PaymentStatus      PaymentStatus
	TaxInvoiceRequired bool
	VoucherCode        pgtype.Text
	DiscountType       pgtype.Text
	DiscountValue      pgtype.Int8
	SubtotalAmount     int64
	TaxAmount          int64
	DiscountAmount     int64
	TotalAmount        int64
	DepositDue         int64
	BalanceDue         int64
	CreatedAt          pgtype.Timestamptz
	UpdatedAt          pgtype.Timestamptz
}

// BookingTent is one (item, date-range) occupancy inside a booking.
type BookingTent struct {
	ID             pgtype.UUID
	BookingID      pgtype.UUID
	ItemID         pgtype.UUID
	CheckIn        pgtype.Date
	CheckOut       pgtype.Date
	VoucherCode    pgtype.Text
	DiscountType   pgtype.Text
	DiscountValue  pgtype.Int8
	DiscountAmount int64
}

// BookingItem is one (tent, parameter) priced line.
type BookingItem struct {
	ID          pgtype.UUID
	TentID      pgtype.UUID
	ParameterID pgtype.UUID
	PricingMode PricingMode
	Quantity    int32
	UnitPrice   int64
	TotalPrice  int64
}

// BookingMenuProduct is a purchased add-on, optionally attached to a tent and serving date.
type BookingMenuProduct struct {
	ID               pgtype.UUID
	BookingID        pgtype.UUID
	TentID           pgtype.UUID
	MenuItemID       pgtype.UUID
	Name             string
	ServeDate        pgtype.Date
	Quantity         int32
	UnitPrice        int64
	SubtotalOverride pgtype.Int8
	VoucherCode      pgtype.Text
	DiscountType     pgtype.Text
	DiscountValue    pgtype.Int8
	DiscountAmount   int64
}

// LineTotal derives the line price: the staff override when present, quantity
// times unit price otherwise. Never stored independently of this rule.
func (p BookingMenuProduct) LineTotal() int64 {
	if p.SubtotalOverride.Valid {
		return p.SubtotalOverride.Int64
	}
	return int64(p.Quantity) * p.UnitPrice
}

// AdditionalCost is a staff-added line with its own tax, independent of vouchers.
type AdditionalCost struct {
	ID         pgtype.UUID
	BookingID  pgtype.UUID
	Label      string
	Quantity   int32
	UnitPrice  int64
	TaxRateBps int32
	TaxAmount  int64
}

// LineTotal derives the cost line's pre-tax amount.
func (c AdditionalCost) LineTotal() int64 {
	return int64(c.Quantity) * c.UnitPrice
}

// StatusHistory is one append-only audit row written on every recalculation.
type StatusHistory struct {
	ID                pgtype.UUID
	BookingID         pgtype.UUID
	ActorID           string
	FromStatus        string
	ToStatus          string
	FromPaymentStatus string
	ToPaymentStatus   string
	Description       string
	CreatedAt         pgtype.Timestamptz
}

// DomainEvent is a persisted event emitted after successful commits.
type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}
