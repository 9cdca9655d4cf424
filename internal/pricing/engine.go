package pricing

// Summary aggregates the stored money components of a booking. Total mirrors
// the database's generated column: subtotal plus tax minus discount.
type Summary struct {
	Subtotal Money
	Tax      Money
	Discount Money
	Total    Money
	Deposit  Money
}

// ComputeSummary derives the booking totals from its components. The discount
// is clamped so the total never goes negative, and the deposit is a whole
// percentage of the final total.
func ComputeSummary(subtotal, tax, discount Money, depositPercent int) Summary {
	if discount < 0 {
		discount = 0
	}
	if limit := subtotal + tax; discount > limit {
		discount = limit
	}
	total := subtotal + tax - discount
	deposit := Money(0)
	if depositPercent > 0 {
		deposit = total * Money(depositPercent) / 100
	}
	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    total,
		Deposit:  deposit,
	}
}
