package planner

import (
	"regexp"
	"sort"
	"time"
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const (
	reasonMinimum     = "Minimum payment to avoid late fees"
	reasonSnowball    = "Extra toward balance (snowball — smallest balance first)"
	reasonAvalanche   = "Extra toward balance (avalanche — highest APR first)"
	reasonUtilization = "Reduces utilization below 30% before reporting"
)

// targetUtilizationPercent is the reporting threshold the utilization
// strategy pays down to.
const targetUtilizationPercent = 30

// targetDueDate returns the card's due date when it is a valid YYYY-MM-DD
// string, otherwise reference + 30 days. Callers depend on this exact
// fallback offset when due-date data is missing or malformed.
func targetDueDate(card Card, reference time.Time) string {
	if card.DueDate != nil && isoDatePattern.MatchString(*card.DueDate) {
		return *card.DueDate
	}
	return reference.UTC().AddDate(0, 0, 30).Format(isoDate)
}

// statementCloseDate returns the card's statement close date when it is a
// valid YYYY-MM-DD string.
func statementCloseDate(card Card) (string, bool) {
	if card.StatementCloseDate != nil && isoDatePattern.MatchString(*card.StatementCloseDate) {
		return *card.StatementCloseDate, true
	}
	return "", false
}

// AllocatePayments builds one BY_DUE_DATE action per card covering its
// minimum, then distributes any surplus cash according to the strategy. The
// utilization strategy may add BEFORE_STATEMENT_CLOSE actions and falls back
// to snowball so leftover cash is never stranded. Output is deterministic
// for fixed inputs; the caller's card slice is never modified.
func AllocatePayments(cards []Card, availableCashCents int64, strategy Strategy, referenceDate time.Time) []PlanAction {
	var totalMinimumCents int64
	for _, card := range cards {
		totalMinimumCents += minimumDue(card)
	}
	surplus := max(0, availableCashCents-totalMinimumCents)

	// Mutable accumulation stays confined to this slice and index; the map
	// points into minActions, which never grows after this loop.
	minActions := make([]PlanAction, len(cards))
	byCardID := make(map[string]*PlanAction, len(cards))
	for i, card := range cards {
		minActions[i] = PlanAction{
			CardID:      card.CardID,
			CardName:    card.CardName,
			ActionType:  ActionByDueDate,
			AmountCents: minimumDue(card),
			TargetDate:  targetDueDate(card, referenceDate),
			Priority:    0.5,
			Reason:      reasonMinimum,
			ReasonTags:  []string{TagMinimumPayment},
		}
		byCardID[card.CardID] = &minActions[i]
	}

	if surplus <= 0 {
		return minActions
	}

	var closeActions []PlanAction
	switch strategy {
	case Utilization:
		surplus, closeActions = distributeUtilization(cards, surplus)
		if surplus > 0 {
			distributeExtra(cards, surplus, byCardID, Snowball)
		}
	case Avalanche:
		distributeExtra(cards, surplus, byCardID, Avalanche)
	default:
		distributeExtra(cards, surplus, byCardID, Snowball)
	}

	return append(minActions, closeActions...)
}

// distributeExtra walks cards in strategy order topping up each card's
// BY_DUE_DATE action, capped at the card's headroom (balance minus minimum).
// Returns the cash left over.
func distributeExtra(cards []Card, extraCashCents int64, byCardID map[string]*PlanAction, strategy Strategy) int64 {
	reason, tags := reasonSnowball, []string{TagMinimumPayment, TagStability}
	if strategy == Avalanche {
		reason, tags = reasonAvalanche, []string{TagAPRPriority, TagMinimumPayment}
	}

	remaining := extraCashCents
	for _, card := range SortCardsByStrategy(cards, strategy) {
		if remaining <= 0 {
			break
		}
		action, ok := byCardID[card.CardID]
		if !ok {
			continue
		}

		headroom := max(0, card.CurrentBalanceCents-minimumDue(card))
		add := min(headroom, remaining)
		if add > 0 {
			remaining -= add
			action.AmountCents += add
			action.Reason = reason
			action.ReasonTags = tags
		}
	}
	return remaining
}

// distributeUtilization pays high-utilization cards down toward the 30%
// reporting threshold before their statement close. Cards need a valid close
// date and utilization above the threshold to qualify; highest utilization
// goes first, ties broken by soonest close date.
func distributeUtilization(cards []Card, extraCashCents int64) (int64, []PlanAction) {
	type candidate struct {
		card      Card
		util      float64
		closeDate string
	}

	var candidates []candidate
	for _, card := range cards {
		closeDate, ok := statementCloseDate(card)
		if !ok {
			continue
		}
		util := CalculateUtilization(card)
		if util <= targetUtilizationPercent {
			continue
		}
		candidates = append(candidates, candidate{card: card, util: util, closeDate: closeDate})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].util != candidates[j].util {
			return candidates[i].util > candidates[j].util
		}
		// Valid ISO dates compare chronologically as strings.
		return candidates[i].closeDate < candidates[j].closeDate
	})

	remaining := extraCashCents
	var actions []PlanAction
	for _, c := range candidates {
		if remaining <= 0 {
			break
		}

		limit := *c.card.CreditLimitCents // utilization > 30 implies a positive limit
		balanceAfterMin := max(0, c.card.CurrentBalanceCents-minimumDue(c.card))
		targetBalance := limit * targetUtilizationPercent / 100
		payBefore := min(max(0, balanceAfterMin-targetBalance), balanceAfterMin, remaining)

		if payBefore > 0 {
			remaining -= payBefore
			actions = append(actions, PlanAction{
				CardID:      c.card.CardID,
				CardName:    c.card.CardName,
				ActionType:  ActionBeforeStatementClose,
				AmountCents: payBefore,
				TargetDate:  c.closeDate,
				Priority:    0.9,
				Reason:      reasonUtilization,
				ReasonTags:  []string{TagUtilizationReporting},
			})
		}
	}

	return remaining, actions
}
