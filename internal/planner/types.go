// Package planner implements the deterministic payment-allocation engine:
// given card balances, available cash, and a strategy it produces a
// reproducible plan of payment actions plus portfolio-level metrics.
// The engine is pure: it never mutates its inputs and performs no I/O.
package planner

import "time"

// Strategy names the policy for distributing surplus cash across cards.
type Strategy string

const (
	Snowball    Strategy = "snowball"    // smallest balance first
	Avalanche   Strategy = "avalanche"   // highest APR first
	Utilization Strategy = "utilization" // pay down high-utilization cards before statement close
)

// ActionType distinguishes the two kinds of plan actions.
type ActionType string

const (
	ActionByDueDate            ActionType = "BY_DUE_DATE"
	ActionBeforeStatementClose ActionType = "BEFORE_STATEMENT_CLOSE"
)

// Reason tags attached to plan actions.
const (
	TagMinimumPayment       = "minimum_payment"
	TagStability            = "stability"
	TagAPRPriority          = "apr_priority"
	TagUtilizationReporting = "utilization_reporting"
)

// Card is the engine's input shape for a single credit card. Optional fields
// are pointers so "missing" stays distinguishable from an explicit zero; the
// zero default is applied at the point of use, not here.
type Card struct {
	CardID              string  `json:"cardId"`
	CardName            string  `json:"cardName"`
	Issuer              *string `json:"issuer,omitempty"`
	CurrentBalanceCents int64   `json:"currentBalanceCents"`
	CreditLimitCents    *int64  `json:"creditLimitCents,omitempty"`
	APRBps              *int64  `json:"aprBps,omitempty"`
	MinimumDueCents     *int64  `json:"minimumDueCents,omitempty"`
	DueDate             *string `json:"dueDate,omitempty"`
	StatementCloseDate  *string `json:"statementCloseDate,omitempty"`
}

// PlanAction is a single recommended payment.
type PlanAction struct {
	CardID      string     `json:"cardId"`
	CardName    string     `json:"cardName"`
	ActionType  ActionType `json:"actionType"`
	AmountCents int64      `json:"amountCents"`
	TargetDate  string     `json:"targetDate"`
	Priority    float64    `json:"priority"`
	Reason      string     `json:"reason"`
	ReasonTags  []string   `json:"reasonTags"`
	// MarkedPaidAt is stamped by callers onto persisted snapshots; the engine
	// never sets it.
	MarkedPaidAt *string `json:"markedPaidAt,omitempty"`
}

// Confidence grades the completeness of the input data behind a plan.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Portfolio carries plan-level metrics. Utilization is a ratio on a 0-10
// scale (0.3 means 30%), unlike the per-card percentage from
// CalculateUtilization. The asymmetry is intentional; callers rely on it.
type Portfolio struct {
	Utilization float64    `json:"utilization"`
	Confidence  Confidence `json:"confidence"`
}

// PlanSnapshot is the complete output of one allocation run.
type PlanSnapshot struct {
	PlanID       string       `json:"planId"`
	GeneratedAt  string       `json:"generatedAt"`
	CycleLabel   string       `json:"cycleLabel"`
	FocusSummary []string     `json:"focusSummary"`
	NextAction   *PlanAction  `json:"nextAction,omitempty"`
	Actions      []PlanAction `json:"actions"`
	Portfolio    Portfolio    `json:"portfolio"`
}

// GeneratePlanOptions overrides the wall clock and derived identifiers for
// reproducible output (tests, replays).
type GeneratePlanOptions struct {
	ReferenceDate *time.Time
	PlanID        string
	GeneratedAt   string
}

func minimumDue(c Card) int64 {
	if c.MinimumDueCents == nil {
		return 0
	}
	return *c.MinimumDueCents
}

func aprBps(c Card) int64 {
	if c.APRBps == nil {
		return 0
	}
	return *c.APRBps
}
