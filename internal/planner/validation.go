package planner

import "fmt"

// SuggestionKind categorizes a remediation suggestion.
type SuggestionKind string

const (
	SuggestIncreaseCash SuggestionKind = "increase_cash"
	SuggestReduceCards  SuggestionKind = "reduce_cards"
)

// ConstraintSuggestion is a single actionable remediation with a
// deterministic message.
type ConstraintSuggestion struct {
	Kind    SuggestionKind `json:"kind"`
	Message string         `json:"message"`
}

// ConstraintViolation is returned when total minimum payments exceed
// available cash. It is the engine's only error condition; everything else
// degrades to safe defaults. Identical inputs produce byte-identical
// messages.
type ConstraintViolation struct {
	TotalMinimumCents  int64                  `json:"totalMinimumCents"`
	AvailableCashCents int64                  `json:"availableCashCents"`
	ShortfallCents     int64                  `json:"shortfallCents"`
	CardCount          int                    `json:"cardCount"`
	Suggestions        []ConstraintSuggestion `json:"suggestions"`
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf(
		"Total minimum payments exceed available cash. Required: %d cents. Available: %d cents. Shortfall: %d cents.",
		e.TotalMinimumCents, e.AvailableCashCents, e.ShortfallCents,
	)
}

// ValidateConstraints checks that available cash covers the sum of minimum
// payments (missing minimums count as 0). On failure it returns a
// *ConstraintViolation with the shortfall and two suggestions in fixed
// order; allocation must not be attempted after a failure.
func ValidateConstraints(cards []Card, availableCashCents int64) error {
	var totalMinimumCents int64
	for _, card := range cards {
		totalMinimumCents += minimumDue(card)
	}

	if totalMinimumCents <= availableCashCents {
		return nil
	}

	shortfall := totalMinimumCents - availableCashCents
	return &ConstraintViolation{
		TotalMinimumCents:  totalMinimumCents,
		AvailableCashCents: availableCashCents,
		ShortfallCents:     shortfall,
		CardCount:          len(cards),
		Suggestions: []ConstraintSuggestion{
			{
				Kind:    SuggestIncreaseCash,
				Message: fmt.Sprintf("Increase available cash by at least %d cents.", shortfall),
			},
			{
				Kind:    SuggestReduceCards,
				Message: "Reduce the number of cards or lower minimum payments so total minimums do not exceed available cash.",
			},
		},
	}
}
