package models

import (
	"time"

	"github.com/ccpp/planner-service/internal/planner"
)

// Card is a stored credit card. Limit, APR, minimum, and the two cycle days
// are pointers so a missing value is distinguishable from an explicit zero;
// the planner relies on that distinction for its confidence metric.
type Card struct {
	ID                      string  `json:"id"`
	UserID                  string  `json:"user_id"`
	Name                    string  `json:"name"`
	Issuer                  *string `json:"issuer,omitempty"`
	CurrentBalanceCents     int64   `json:"current_balance_cents"`
	CreditLimitCents        *int64  `json:"credit_limit_cents,omitempty"`
	APRBps                  *int64  `json:"apr_bps,omitempty"`
	MinimumDueCents         *int64  `json:"minimum_due_cents,omitempty"`
	DueDateDay              *int    `json:"due_date_day,omitempty"`
	StatementCloseDay       *int    `json:"statement_close_day,omitempty"`
	ExcludeFromOptimization bool    `json:"exclude_from_optimization"`
	CreatedAt               string  `json:"created_at"`
	UpdatedAt               string  `json:"updated_at"`
}

// PlannerCard converts the stored card into the engine's input shape.
// Day-of-month fields become the next concrete occurrence on or after the
// reference date.
func (c *Card) PlannerCard(reference time.Time) planner.Card {
	card := planner.Card{
		CardID:              c.ID,
		CardName:            c.Name,
		Issuer:              c.Issuer,
		CurrentBalanceCents: c.CurrentBalanceCents,
		CreditLimitCents:    c.CreditLimitCents,
		APRBps:              c.APRBps,
		MinimumDueCents:     c.MinimumDueCents,
	}
	if c.DueDateDay != nil {
		due := planner.NextDayOfMonthISO(*c.DueDateDay, reference)
		card.DueDate = &due
	}
	if c.StatementCloseDay != nil {
		closeDate := planner.NextDayOfMonthISO(*c.StatementCloseDay, reference)
		card.StatementCloseDate = &closeDate
	}
	return card
}
