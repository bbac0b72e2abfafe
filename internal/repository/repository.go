package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ccpp/planner-service/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist or is not
// visible to the current user.
var ErrNotFound = errors.New("not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the schema, tables, and row-level-security policies.
func (r *Repository) Migrate() error {
	schema := `
CREATE SCHEMA IF NOT EXISTS planner;

CREATE TABLE IF NOT EXISTS planner.users (
  id UUID PRIMARY KEY,
  username TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS planner.cards (
  id UUID PRIMARY KEY,
  user_id UUID NOT NULL REFERENCES planner.users(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  issuer TEXT,
  current_balance_cents BIGINT NOT NULL DEFAULT 0,
  credit_limit_cents BIGINT,
  apr_bps BIGINT,
  minimum_due_cents BIGINT,
  due_date_day INT,
  statement_close_day INT,
  exclude_from_optimization BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS planner.plans (
  id UUID PRIMARY KEY,
  user_id UUID NOT NULL REFERENCES planner.users(id) ON DELETE CASCADE,
  strategy TEXT NOT NULL,
  available_cash_cents BIGINT NOT NULL,
  total_payment_cents BIGINT NOT NULL,
  generated_at TIMESTAMPTZ NOT NULL,
  snapshot_json JSONB NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS planner.plan_preferences (
  user_id UUID PRIMARY KEY REFERENCES planner.users(id) ON DELETE CASCADE,
  strategy TEXT NOT NULL,
  available_cash_cents BIGINT NOT NULL DEFAULT 0,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

ALTER TABLE planner.cards ENABLE ROW LEVEL SECURITY;
ALTER TABLE planner.plans ENABLE ROW LEVEL SECURITY;
ALTER TABLE planner.plan_preferences ENABLE ROW LEVEL SECURITY;

DO $$ BEGIN
  CREATE POLICY cards_owner ON planner.cards
    USING (user_id::text = current_setting('request.jwt.claim.sub', true));
EXCEPTION WHEN duplicate_object THEN NULL; END $$;

DO $$ BEGIN
  CREATE POLICY plans_owner ON planner.plans
    USING (user_id::text = current_setting('request.jwt.claim.sub', true));
EXCEPTION WHEN duplicate_object THEN NULL; END $$;

DO $$ BEGIN
  CREATE POLICY plan_preferences_owner ON planner.plan_preferences
    USING (user_id::text = current_setting('request.jwt.claim.sub', true));
EXCEPTION WHEN duplicate_object THEN NULL; END $$;
`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migration: %w", err)
	}
	return nil
}

// WithUser runs work inside a transaction whose session is configured for
// the given user, so row-level-security policies scope every statement.
func (r *Repository) WithUser(userID string, work func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`SELECT set_config('request.jwt.claim.sub', $1, true)`, userID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to configure session: %w", err)
	}

	if err := work(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	user.ID = uuid.NewString()
	query := `
		INSERT INTO planner.users (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at::text, updated_at::text`
	err := r.db.QueryRow(query, user.ID, user.Username, user.Email, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at::text, updated_at::text
		FROM planner.users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

const cardColumns = `id, user_id, name, issuer, current_balance_cents, credit_limit_cents,
		apr_bps, minimum_due_cents, due_date_day, statement_close_day,
		exclude_from_optimization, created_at::text, updated_at::text`

func scanCard(row interface{ Scan(dest ...any) error }) (*models.Card, error) {
	card := &models.Card{}
	err := row.Scan(
		&card.ID, &card.UserID, &card.Name, &card.Issuer, &card.CurrentBalanceCents,
		&card.CreditLimitCents, &card.APRBps, &card.MinimumDueCents,
		&card.DueDateDay, &card.StatementCloseDay,
		&card.ExcludeFromOptimization, &card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// ListCards returns the user's cards, most recently updated first.
func (r *Repository) ListCards(tx *sql.Tx, userID string) ([]models.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM planner.cards
		WHERE user_id = $1
		ORDER BY updated_at DESC`
	rows, err := tx.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cards: %w", err)
	}
	return cards, nil
}

// CreateCard inserts a new card for the user.
func (r *Repository) CreateCard(tx *sql.Tx, card *models.Card) error {
	card.ID = uuid.NewString()
	query := `
		INSERT INTO planner.cards (id, user_id, name, issuer, current_balance_cents,
			credit_limit_cents, apr_bps, minimum_due_cents, due_date_day,
			statement_close_day, exclude_from_optimization, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at::text, updated_at::text`
	err := tx.QueryRow(query,
		card.ID, card.UserID, card.Name, card.Issuer, card.CurrentBalanceCents,
		card.CreditLimitCents, card.APRBps, card.MinimumDueCents,
		card.DueDateDay, card.StatementCloseDay, card.ExcludeFromOptimization,
	).Scan(&card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// UpdateCard updates an existing card owned by the user.
func (r *Repository) UpdateCard(tx *sql.Tx, card *models.Card) error {
	query := `
		UPDATE planner.cards
		SET name = $3, issuer = $4, current_balance_cents = $5, credit_limit_cents = $6,
			apr_bps = $7, minimum_due_cents = $8, due_date_day = $9,
			statement_close_day = $10, exclude_from_optimization = $11, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING created_at::text, updated_at::text`
	err := tx.QueryRow(query,
		card.ID, card.UserID, card.Name, card.Issuer, card.CurrentBalanceCents,
		card.CreditLimitCents, card.APRBps, card.MinimumDueCents,
		card.DueDateDay, card.StatementCloseDay, card.ExcludeFromOptimization,
	).Scan(&card.CreatedAt, &card.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return nil
}

// GetCard retrieves a single card owned by the user.
func (r *Repository) GetCard(tx *sql.Tx, userID, cardID string) (*models.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM planner.cards
		WHERE id = $1 AND user_id = $2`
	card, err := scanCard(tx.QueryRow(query, cardID, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

// DeleteCard removes a card owned by the user.
func (r *Repository) DeleteCard(tx *sql.Tx, userID, cardID string) error {
	result, err := tx.Exec(`DELETE FROM planner.cards WHERE id = $1 AND user_id = $2`, cardID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertPlan persists a generated plan snapshot.
func (r *Repository) InsertPlan(tx *sql.Tx, plan *models.Plan) error {
	plan.ID = uuid.NewString()
	query := `
		INSERT INTO planner.plans (id, user_id, strategy, available_cash_cents,
			total_payment_cents, generated_at, snapshot_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at::text`
	err := tx.QueryRow(query,
		plan.ID, plan.UserID, plan.Strategy, plan.AvailableCashCents,
		plan.TotalPaymentCents, plan.GeneratedAt, []byte(plan.Snapshot),
	).Scan(&plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	return nil
}

const planColumns = `id, user_id, strategy, available_cash_cents, total_payment_cents,
		generated_at::text, snapshot_json, created_at::text`

func scanPlan(row interface{ Scan(dest ...any) error }) (*models.Plan, error) {
	plan := &models.Plan{}
	var snapshot []byte
	err := row.Scan(
		&plan.ID, &plan.UserID, &plan.Strategy, &plan.AvailableCashCents,
		&plan.TotalPaymentCents, &plan.GeneratedAt, &snapshot, &plan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	plan.Snapshot = snapshot
	return plan, nil
}

// LatestPlan returns the user's most recently generated plan.
func (r *Repository) LatestPlan(tx *sql.Tx, userID string) (*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM planner.plans
		WHERE user_id = $1
		ORDER BY generated_at DESC
		LIMIT 1`
	plan, err := scanPlan(tx.QueryRow(query, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest plan: %w", err)
	}
	return plan, nil
}

// MarkActionPaid stamps markedPaidAt onto the indexed action of the stored
// snapshot document. The engine is not involved; this is a document edit.
func (r *Repository) MarkActionPaid(tx *sql.Tx, userID, planID string, actionIndex int) (*models.Plan, error) {
	query := `
		UPDATE planner.plans
		SET snapshot_json = jsonb_set(snapshot_json,
			ARRAY['actions', $3::text, 'markedPaidAt'],
			to_jsonb(NOW()), false)
		WHERE id = $1 AND user_id = $2
		RETURNING ` + planColumns
	plan, err := scanPlan(tx.QueryRow(query, planID, userID, actionIndex))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark action paid: %w", err)
	}
	return plan, nil
}

// GetPreferences loads the user's plan preferences.
func (r *Repository) GetPreferences(tx *sql.Tx, userID string) (*models.PlanPreferences, error) {
	prefs := &models.PlanPreferences{}
	query := `
		SELECT user_id, strategy, available_cash_cents, updated_at::text
		FROM planner.plan_preferences
		WHERE user_id = $1`
	err := tx.QueryRow(query, userID).
		Scan(&prefs.UserID, &prefs.Strategy, &prefs.AvailableCashCents, &prefs.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return prefs, nil
}

// UpsertPreferences stores the user's plan preferences.
func (r *Repository) UpsertPreferences(tx *sql.Tx, prefs *models.PlanPreferences) error {
	query := `
		INSERT INTO planner.plan_preferences (user_id, strategy, available_cash_cents, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET strategy = EXCLUDED.strategy,
			available_cash_cents = EXCLUDED.available_cash_cents,
			updated_at = NOW()
		RETURNING updated_at::text`
	err := tx.QueryRow(query, prefs.UserID, prefs.Strategy, prefs.AvailableCashCents).
		Scan(&prefs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return nil
}

// ReminderPlan pairs a user's latest plan snapshot with their contact info
// for the reminder job.
type ReminderPlan struct {
	Email    string
	Username string
	Snapshot []byte
}

// LatestPlansForReminders returns each user's most recent plan snapshot.
// Runs outside any user session: the reminder job is a trusted batch caller.
func (r *Repository) LatestPlansForReminders() ([]ReminderPlan, error) {
	query := `
		SELECT DISTINCT ON (p.user_id) u.email, u.username, p.snapshot_json
		FROM planner.plans p
		JOIN planner.users u ON u.id = p.user_id
		ORDER BY p.user_id, p.generated_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to load plans for reminders: %w", err)
	}
	defer rows.Close()

	var result []ReminderPlan
	for rows.Next() {
		var rp ReminderPlan
		if err := rows.Scan(&rp.Email, &rp.Username, &rp.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to scan reminder plan: %w", err)
		}
		result = append(result, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reminder plans: %w", err)
	}
	return result, nil
}
