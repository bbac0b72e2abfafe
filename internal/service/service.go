package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ccpp/planner-service/internal/config"
	"github.com/ccpp/planner-service/internal/models"
	"github.com/ccpp/planner-service/internal/planner"
	"github.com/ccpp/planner-service/internal/repository"
	"github.com/ccpp/planner-service/internal/utils/email"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// solverTimeout bounds a single plan generation run.
const solverTimeout = 500 * time.Millisecond

// ErrSolverTimeout is returned when plan generation exceeds solverTimeout.
var ErrSolverTimeout = errors.New("plan generation timed out")

// ErrInvalidStrategy is returned for strategy values outside the known set.
var ErrInvalidStrategy = errors.New("invalid strategy")

// Service handles business logic
type Service struct {
	repo   *repository.Repository
	log    *logrus.Logger
	config *config.Config
	mailer *email.Sender
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config, mailer *email.Sender) *Service {
	return &Service{repo: repo, log: log, config: cfg, mailer: mailer}
}

// ParseStrategy validates a strategy string from the API surface.
func ParseStrategy(value string) (planner.Strategy, error) {
	switch planner.Strategy(value) {
	case planner.Snowball, planner.Avalanche, planner.Utilization:
		return planner.Strategy(value), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, value)
}

// Register creates a new user with hashed password
func (s *Service) Register(username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

func userIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value("userID").(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ListCards returns the authenticated user's cards.
func (s *Service) ListCards(ctx context.Context) ([]models.Card, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var cards []models.Card
	err = s.repo.WithUser(userID, func(tx *sql.Tx) error {
		var inner error
		cards, inner = s.repo.ListCards(tx, userID)
		return inner
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// CreateCard stores a new card for the authenticated user.
func (s *Service) CreateCard(ctx context.Context, card *models.Card) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	card.UserID = userID

	err = s.repo.WithUser(userID, func(tx *sql.Tx) error {
		return s.repo.CreateCard(tx, card)
	})
	if err != nil {
		return err
	}

	s.log.Infof("Card created for user %s: %s", userID, card.Name)
	return nil
}

// UpdateCard updates a card owned by the authenticated user.
func (s *Service) UpdateCard(ctx context.Context, card *models.Card) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	card.UserID = userID

	return s.repo.WithUser(userID, func(tx *sql.Tx) error {
		return s.repo.UpdateCard(tx, card)
	})
}

// DeleteCard removes a card owned by the authenticated user.
func (s *Service) DeleteCard(ctx context.Context, cardID string) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}

	return s.repo.WithUser(userID, func(tx *sql.Tx) error {
		return s.repo.DeleteCard(tx, userID, cardID)
	})
}

// PlanResult is the API-facing shape of a generated or loaded plan.
type PlanResult struct {
	Plan               planner.PlanSnapshot `json:"plan"`
	Strategy           string               `json:"strategy"`
	AvailableCashCents int64                `json:"availableCashCents"`
	TotalPaymentCents  int64                `json:"totalPaymentCents"`
}

// GeneratePlan loads the user's active cards, runs the allocation engine
// under the solver timeout, and persists the resulting snapshot. Cards
// flagged excluded from optimization never reach the engine.
func (s *Service) GeneratePlan(ctx context.Context, availableCashCents int64, strategy planner.Strategy) (*PlanResult, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var result *PlanResult
	err = s.repo.WithUser(userID, func(tx *sql.Tx) error {
		cards, err := s.repo.ListCards(tx, userID)
		if err != nil {
			return err
		}

		reference := time.Now().UTC()
		plannerCards := make([]planner.Card, 0, len(cards))
		for i := range cards {
			if cards[i].ExcludeFromOptimization {
				continue
			}
			plannerCards = append(plannerCards, cards[i].PlannerCard(reference))
		}

		start := time.Now()
		snapshot, err := s.generateWithTimeout(ctx, plannerCards, availableCashCents, strategy, reference)
		s.log.Infof("Plan generation for user %s: cards=%d strategy=%s duration=%s",
			userID, len(plannerCards), strategy, time.Since(start))
		if err != nil {
			return err
		}

		var totalPaymentCents int64
		for _, action := range snapshot.Actions {
			totalPaymentCents += action.AmountCents
		}

		snapshotJSON, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}

		plan := &models.Plan{
			UserID:             userID,
			Strategy:           string(strategy),
			AvailableCashCents: availableCashCents,
			TotalPaymentCents:  totalPaymentCents,
			GeneratedAt:        snapshot.GeneratedAt,
			Snapshot:           snapshotJSON,
		}
		if err := s.repo.InsertPlan(tx, plan); err != nil {
			return err
		}

		result = &PlanResult{
			Plan:               *snapshot,
			Strategy:           string(strategy),
			AvailableCashCents: availableCashCents,
			TotalPaymentCents:  totalPaymentCents,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// generateWithTimeout runs the engine in a goroutine so a pathological input
// cannot stall the request past solverTimeout.
func (s *Service) generateWithTimeout(ctx context.Context, cards []planner.Card, availableCashCents int64, strategy planner.Strategy, reference time.Time) (*planner.PlanSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, solverTimeout)
	defer cancel()

	type outcome struct {
		snapshot *planner.PlanSnapshot
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		snapshot, err := planner.GeneratePlan(cards, availableCashCents, strategy, &planner.GeneratePlanOptions{
			ReferenceDate: &reference,
		})
		done <- outcome{snapshot: snapshot, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ErrSolverTimeout
	case out := <-done:
		return out.snapshot, out.err
	}
}

func planResultFromModel(plan *models.Plan) (*PlanResult, error) {
	var snapshot planner.PlanSnapshot
	if err := json.Unmarshal(plan.Snapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &PlanResult{
		Plan:               snapshot,
		Strategy:           plan.Strategy,
		AvailableCashCents: plan.AvailableCashCents,
		TotalPaymentCents:  plan.TotalPaymentCents,
	}, nil
}

// LatestPlan returns the user's most recent plan.
func (s *Service) LatestPlan(ctx context.Context) (*PlanResult, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var plan *models.Plan
	err = s.repo.WithUser(userID, func(tx *sql.Tx) error {
		var inner error
		plan, inner = s.repo.LatestPlan(tx, userID)
		return inner
	})
	if err != nil {
		return nil, err
	}
	return planResultFromModel(plan)
}

// MarkActionPaid stamps the indexed action of the user's latest plan as paid
// and returns the updated plan.
func (s *Service) MarkActionPaid(ctx context.Context, actionIndex int) (*PlanResult, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var updated *models.Plan
	err = s.repo.WithUser(userID, func(tx *sql.Tx) error {
		latest, err := s.repo.LatestPlan(tx, userID)
		if err != nil {
			return err
		}

		var snapshot planner.PlanSnapshot
		if err := json.Unmarshal(latest.Snapshot, &snapshot); err != nil {
			return fmt.Errorf("failed to decode snapshot: %w", err)
		}
		if actionIndex < 0 || actionIndex >= len(snapshot.Actions) {
			return repository.ErrNotFound
		}

		updated, err = s.repo.MarkActionPaid(tx, userID, latest.ID, actionIndex)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Marked action %d paid for user %s", actionIndex, userID)
	return planResultFromModel(updated)
}

// GetPreferences loads the user's saved plan preferences, defaulting to the
// utilization strategy when none are stored.
func (s *Service) GetPreferences(ctx context.Context) (*models.PlanPreferences, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var prefs *models.PlanPreferences
	err = s.repo.WithUser(userID, func(tx *sql.Tx) error {
		var inner error
		prefs, inner = s.repo.GetPreferences(tx, userID)
		if errors.Is(inner, repository.ErrNotFound) {
			prefs = &models.PlanPreferences{
				UserID:   userID,
				Strategy: string(planner.Utilization),
			}
			return nil
		}
		return inner
	})
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

// SavePreferences upserts the user's plan preferences.
func (s *Service) SavePreferences(ctx context.Context, strategy planner.Strategy, availableCashCents int64) (*models.PlanPreferences, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	prefs := &models.PlanPreferences{
		UserID:             userID,
		Strategy:           string(strategy),
		AvailableCashCents: availableCashCents,
	}
	err = s.repo.WithUser(userID, func(tx *sql.Tx) error {
		return s.repo.UpsertPreferences(tx, prefs)
	})
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

// SendUpcomingActionReminders emails each user about unpaid plan actions due
// within the lookahead window. Intended to run from the daily cron job.
func (s *Service) SendUpcomingActionReminders(lookaheadDays int) error {
	plans, err := s.repo.LatestPlansForReminders()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, lookaheadDays)

	sent := 0
	for _, rp := range plans {
		var snapshot planner.PlanSnapshot
		if err := json.Unmarshal(rp.Snapshot, &snapshot); err != nil {
			s.log.Warnf("Skipping malformed snapshot for %s: %v", rp.Email, err)
			continue
		}

		for _, action := range snapshot.Actions {
			if action.MarkedPaidAt != nil || action.AmountCents == 0 {
				continue
			}
			target, err := time.Parse("2006-01-02", action.TargetDate)
			if err != nil || target.After(cutoff) {
				continue
			}

			isOverdue := target.Before(today)
			if err := s.mailer.SendActionReminder(rp.Email, rp.Username, action, isOverdue); err != nil {
				s.log.Errorf("Failed to send reminder to %s: %v", rp.Email, err)
				continue
			}
			sent++
		}
	}

	s.log.Infof("Reminder job finished: %d reminder(s) sent", sent)
	return nil
}
