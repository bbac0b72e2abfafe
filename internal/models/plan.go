package models

import "encoding/json"

// Plan is a persisted plan snapshot row. The snapshot itself is stored as a
// JSON document; "mark action paid" mutates that document in place without
// re-running the engine.
type Plan struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Strategy           string          `json:"strategy"`
	AvailableCashCents int64           `json:"available_cash_cents"`
	TotalPaymentCents  int64           `json:"total_payment_cents"`
	GeneratedAt        string          `json:"generated_at"`
	Snapshot           json.RawMessage `json:"snapshot"`
	CreatedAt          string          `json:"created_at"`
}
