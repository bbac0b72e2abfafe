package planner

// CalculateUtilization returns a card's balance-to-limit ratio as a
// percentage. A missing or non-positive limit yields 0 (unknown, assume
// safe). Balances above the limit produce values over 100.
func CalculateUtilization(card Card) float64 {
	if card.CreditLimitCents == nil || *card.CreditLimitCents <= 0 {
		return 0
	}
	return float64(card.CurrentBalanceCents) / float64(*card.CreditLimitCents) * 100
}
