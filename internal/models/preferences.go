package models

// PlanPreferences stores a user's last-used generation inputs so clients can
// pre-fill the next run.
type PlanPreferences struct {
	UserID             string `json:"user_id"`
	Strategy           string `json:"strategy"`
	AvailableCashCents int64  `json:"available_cash_cents"`
	UpdatedAt          string `json:"updated_at"`
}
