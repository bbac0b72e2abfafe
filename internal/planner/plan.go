package planner

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const isoTimestamp = "2006-01-02T15:04:05.000Z07:00"

// CycleLabel is the fixed descriptive label for the billing cycle a plan
// covers.
const CycleLabel = "This Cycle"

const (
	maxFocusLines   = 5
	maxFocusLineLen = 140
)

// GeneratePlan validates inputs, allocates payments, and assembles the full
// plan snapshot. On insufficient cash it returns a *ConstraintViolation and
// no partial plan. With an explicit reference date (and optional ID and
// timestamp overrides) the output is fully reproducible.
func GeneratePlan(cards []Card, availableCashCents int64, strategy Strategy, opts *GeneratePlanOptions) (*PlanSnapshot, error) {
	if err := ValidateConstraints(cards, availableCashCents); err != nil {
		return nil, err
	}

	reference := time.Now().UTC()
	if opts != nil && opts.ReferenceDate != nil {
		reference = opts.ReferenceDate.UTC()
	}

	actions := AllocatePayments(cards, availableCashCents, strategy, reference)

	planID := ""
	generatedAt := ""
	if opts != nil {
		planID = opts.PlanID
		generatedAt = opts.GeneratedAt
	}
	if planID == "" {
		planID = deterministicPlanID(cards, availableCashCents, strategy, reference)
	}
	if generatedAt == "" {
		generatedAt = reference.Format(isoTimestamp)
	}

	projected := projectedBalancesByCard(cards, actions)

	return &PlanSnapshot{
		PlanID:       planID,
		GeneratedAt:  generatedAt,
		CycleLabel:   CycleLabel,
		FocusSummary: buildFocusSummary(cards, actions, strategy),
		NextAction:   pickNextAction(actions),
		Actions:      actions,
		Portfolio: Portfolio{
			Utilization: portfolioUtilization(cards, projected),
			Confidence:  portfolioConfidence(cards),
		},
	}, nil
}

type hashCard struct {
	ID    string  `json:"id"`
	Bal   int64   `json:"bal"`
	Min   int64   `json:"min"`
	Lim   int64   `json:"lim"`
	Due   *string `json:"due"`
	Close *string `json:"close"`
}

type hashInput struct {
	Cards              []hashCard `json:"cards"`
	AvailableCashCents int64      `json:"availableCashCents"`
	Strategy           Strategy   `json:"strategy"`
	Ref                int64      `json:"ref"`
}

// deterministicPlanID derives a 32-char lowercase hex ID from a normalized
// encoding of the inputs. Cards are sorted by ID first, so the hash is
// independent of caller ordering.
func deterministicPlanID(cards []Card, availableCashCents int64, strategy Strategy, reference time.Time) string {
	sorted := make([]Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CardID < sorted[j].CardID })

	payload := hashInput{
		Cards:              make([]hashCard, 0, len(sorted)),
		AvailableCashCents: availableCashCents,
		Strategy:           strategy,
		Ref:                reference.UnixMilli(),
	}
	for _, c := range sorted {
		hc := hashCard{
			ID:    c.CardID,
			Bal:   c.CurrentBalanceCents,
			Min:   minimumDue(c),
			Due:   c.DueDate,
			Close: c.StatementCloseDate,
		}
		if c.CreditLimitCents != nil {
			hc.Lim = *c.CreditLimitCents
		}
		payload.Cards = append(payload.Cards, hc)
	}

	// Struct field order keeps the JSON encoding stable.
	encoded, _ := json.Marshal(payload)
	return mixHash128(encoded)
}

// mixHash128 is a four-lane 32-bit mixing hash rendered as 32 hex chars.
// Non-cryptographic: the requirement is determinism plus strong input
// sensitivity, not security.
func mixHash128(input []byte) string {
	h1 := uint32(1779033703)
	h2 := uint32(3144134277)
	h3 := uint32(1013904242)
	h4 := uint32(2773480762)

	for _, b := range input {
		k := uint32(b)
		h1 = h2 ^ ((h1 ^ k) * 597399067)
		h2 = h3 ^ ((h2 ^ k) * 2869860233)
		h3 = h4 ^ ((h3 ^ k) * 951274213)
		h4 = h1 ^ ((h4 ^ k) * 2716044179)
	}

	h1 = (h3 ^ (h1 >> 18)) * 597399067
	h2 = (h4 ^ (h2 >> 22)) * 2869860233
	h3 = (h1 ^ (h3 >> 17)) * 951274213
	h4 = (h2 ^ (h4 >> 19)) * 2716044179

	return fmt.Sprintf("%08x%08x%08x%08x", h1, h2, h3, h4)
}

// projectedBalancesByCard computes each card's balance after all of its plan
// actions are applied, floored at zero.
func projectedBalancesByCard(cards []Card, actions []PlanAction) map[string]int64 {
	projected := make(map[string]int64, len(cards))
	for _, card := range cards {
		var totalPay int64
		for _, action := range actions {
			if action.CardID == card.CardID {
				totalPay += action.AmountCents
			}
		}
		projected[card.CardID] = max(0, card.CurrentBalanceCents-totalPay)
	}
	return projected
}

// portfolioUtilization is total projected balance over total limit, clamped
// to the 0-10 ratio scale. Returns 0 when no card has a limit.
func portfolioUtilization(cards []Card, projected map[string]int64) float64 {
	var totalBalance, totalLimit int64
	for _, card := range cards {
		bal, ok := projected[card.CardID]
		if !ok {
			bal = card.CurrentBalanceCents
		}
		totalBalance += bal
		if card.CreditLimitCents != nil {
			totalLimit += *card.CreditLimitCents
		}
	}

	if totalLimit <= 0 {
		return 0
	}
	ratio := float64(totalBalance) / float64(totalLimit)
	return min(10, max(0, ratio))
}

// portfolioConfidence grades data completeness: high when every card carries
// a due date and a positive limit, low when none does, medium otherwise.
// An empty card list is medium.
func portfolioConfidence(cards []Card) Confidence {
	if len(cards) == 0 {
		return ConfidenceMedium
	}

	withDue, withLimit := 0, 0
	for _, card := range cards {
		if card.DueDate != nil {
			withDue++
		}
		if card.CreditLimitCents != nil && *card.CreditLimitCents > 0 {
			withLimit++
		}
	}

	if withDue == len(cards) && withLimit == len(cards) {
		return ConfidenceHigh
	}
	if withDue == 0 && withLimit == 0 {
		return ConfidenceLow
	}
	return ConfidenceMedium
}

// pickNextAction returns the most urgent action: earliest target date, ties
// broken by higher priority. Nil when there are no actions.
func pickNextAction(actions []PlanAction) *PlanAction {
	if len(actions) == 0 {
		return nil
	}

	sorted := make([]PlanAction, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TargetDate != sorted[j].TargetDate {
			return sorted[i].TargetDate < sorted[j].TargetDate
		}
		return sorted[i].Priority > sorted[j].Priority
	})
	return &sorted[0]
}

// buildFocusSummary produces at most five human-readable highlight lines of
// at most 140 characters each. Lines whose condition does not hold are
// omitted.
func buildFocusSummary(cards []Card, actions []PlanAction, strategy Strategy) []string {
	lines := []string{}

	minCount := 0
	for _, card := range cards {
		if minimumDue(card) > 0 {
			minCount++
		}
	}
	if minCount > 0 {
		lines = append(lines, fmt.Sprintf("Pay minimums on %d card%s.", minCount, plural(minCount)))
	}

	byID := make(map[string]Card, len(cards))
	for _, card := range cards {
		byID[card.CardID] = card
	}
	for _, action := range actions {
		card, ok := byID[action.CardID]
		if !ok || action.ActionType != ActionByDueDate || action.AmountCents <= minimumDue(card) {
			continue
		}
		lines = append(lines, fmt.Sprintf("Extra to %s (%s).", action.CardName, strategyLabel(strategy)))
		break
	}

	closeCount := 0
	for _, action := range actions {
		if action.ActionType == ActionBeforeStatementClose {
			closeCount++
		}
	}
	if closeCount > 0 {
		lines = append(lines, fmt.Sprintf("%d pre-statement payment%s to lower utilization.", closeCount, plural(closeCount)))
	}

	if len(lines) > maxFocusLines {
		lines = lines[:maxFocusLines]
	}
	for i, line := range lines {
		if len(line) > maxFocusLineLen {
			lines[i] = line[:maxFocusLineLen]
		}
	}
	return lines
}

func strategyLabel(strategy Strategy) string {
	switch strategy {
	case Snowball:
		return "snowball (smallest balance)"
	case Avalanche:
		return "avalanche (highest APR)"
	default:
		return "utilization"
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
