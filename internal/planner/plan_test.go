package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateOpts() *GeneratePlanOptions {
	ref := referenceDate
	return &GeneratePlanOptions{ReferenceDate: &ref}
}

func TestGeneratePlan(t *testing.T) {
	for _, strategy := range []Strategy{Snowball, Avalanche, Utilization} {
		t.Run("generates a plan for "+string(strategy), func(t *testing.T) {
			plan, err := GeneratePlan(typicalCards, 100_000, strategy, generateOpts())
			require.NoError(t, err)

			assert.Len(t, plan.PlanID, 32)
			assert.Equal(t, "2026-01-15T00:00:00.000Z", plan.GeneratedAt)
			assert.Equal(t, CycleLabel, plan.CycleLabel)
			assert.GreaterOrEqual(t, len(plan.Actions), len(typicalCards))

			byDueDate := 0
			for _, action := range plan.Actions {
				if action.ActionType == ActionByDueDate {
					byDueDate++
				}
			}
			assert.Equal(t, len(typicalCards), byDueDate)
		})
	}

	t.Run("never allocates more than available cash for minimum-only plans", func(t *testing.T) {
		cards := []Card{
			makeCard(Card{CardID: "card-a", CardName: "Card A", MinimumDueCents: i64(1_000)}),
			makeCard(Card{CardID: "card-b", CardName: "Card B", MinimumDueCents: i64(500)}),
		}

		plan, err := GeneratePlan(cards, 1_500, Snowball, generateOpts())
		require.NoError(t, err)

		require.Len(t, plan.Actions, 2)
		assert.Equal(t, int64(1_500), sumActionAmounts(plan.Actions))
	})

	t.Run("selects the next action by earliest target date", func(t *testing.T) {
		plan, err := GeneratePlan(typicalCards, 100_000, Snowball, generateOpts())
		require.NoError(t, err)

		require.NotNil(t, plan.NextAction)
		assert.Equal(t, "2026-02-05", plan.NextAction.TargetDate)
	})

	t.Run("ties on target date break by higher priority", func(t *testing.T) {
		card := makeCard(Card{
			CardID:              "card-tie",
			CardName:            "Tie",
			CurrentBalanceCents: 70_000,
			CreditLimitCents:    i64(80_000),
			MinimumDueCents:     i64(2_500),
			DueDate:             str("2026-01-17"),
			StatementCloseDate:  str("2026-01-17"),
		})

		plan, err := GeneratePlan([]Card{card}, 50_000, Utilization, generateOpts())
		require.NoError(t, err)

		// Both actions target 2026-01-17; the 0.9-priority pre-statement
		// payment wins.
		require.NotNil(t, plan.NextAction)
		assert.Equal(t, ActionBeforeStatementClose, plan.NextAction.ActionType)
	})

	t.Run("fails with a constraint violation when cash is below minimums", func(t *testing.T) {
		_, err := GeneratePlan(typicalCards, 100, Snowball, generateOpts())
		require.Error(t, err)

		var violation *ConstraintViolation
		require.True(t, errors.As(err, &violation))
		assert.Equal(t, len(typicalCards), violation.CardCount)
		assert.Contains(t, err.Error(), "Total minimum payments exceed available cash.")
	})

	t.Run("handles an empty card set", func(t *testing.T) {
		plan, err := GeneratePlan(nil, 10_000, Snowball, generateOpts())
		require.NoError(t, err)

		assert.Empty(t, plan.Actions)
		assert.Empty(t, plan.FocusSummary)
		assert.Nil(t, plan.NextAction)
		assert.Equal(t, ConfidenceMedium, plan.Portfolio.Confidence)
	})

	t.Run("allocates all cash to a single card below its headroom", func(t *testing.T) {
		plan, err := GeneratePlan(singleCard, 20_000, Snowball, generateOpts())
		require.NoError(t, err)

		require.Len(t, plan.Actions, 1)
		assert.Equal(t, int64(20_000), plan.Actions[0].AmountCents)
	})

	t.Run("identical inputs yield identical snapshots", func(t *testing.T) {
		first, err := GeneratePlan(typicalCards, 50_000, Utilization, generateOpts())
		require.NoError(t, err)
		second, err := GeneratePlan(typicalCards, 50_000, Utilization, generateOpts())
		require.NoError(t, err)

		assert.Equal(t, first.PlanID, second.PlanID)
		assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
		assert.Equal(t, first.Actions, second.Actions)
	})

	t.Run("plan ID is independent of card order", func(t *testing.T) {
		reversed := make([]Card, len(typicalCards))
		for i, card := range typicalCards {
			reversed[len(typicalCards)-1-i] = card
		}

		first, err := GeneratePlan(typicalCards, 50_000, Snowball, generateOpts())
		require.NoError(t, err)
		second, err := GeneratePlan(reversed, 50_000, Snowball, generateOpts())
		require.NoError(t, err)

		assert.Equal(t, first.PlanID, second.PlanID)
	})

	t.Run("plan ID changes when any input changes", func(t *testing.T) {
		base, err := GeneratePlan(typicalCards, 50_000, Snowball, generateOpts())
		require.NoError(t, err)

		moreCash, err := GeneratePlan(typicalCards, 50_001, Snowball, generateOpts())
		require.NoError(t, err)
		assert.NotEqual(t, base.PlanID, moreCash.PlanID)

		otherStrategy, err := GeneratePlan(typicalCards, 50_000, Avalanche, generateOpts())
		require.NoError(t, err)
		assert.NotEqual(t, base.PlanID, otherStrategy.PlanID)

		changed := make([]Card, len(typicalCards))
		copy(changed, typicalCards)
		changed[0].CurrentBalanceCents++
		changedPlan, err := GeneratePlan(changed, 50_000, Snowball, generateOpts())
		require.NoError(t, err)
		assert.NotEqual(t, base.PlanID, changedPlan.PlanID)
	})

	t.Run("honors explicit plan ID and generatedAt overrides", func(t *testing.T) {
		ref := referenceDate
		plan, err := GeneratePlan(typicalCards, 50_000, Snowball, &GeneratePlanOptions{
			ReferenceDate: &ref,
			PlanID:        "plan-override",
			GeneratedAt:   "2026-01-15T08:00:00.000Z",
		})
		require.NoError(t, err)

		assert.Equal(t, "plan-override", plan.PlanID)
		assert.Equal(t, "2026-01-15T08:00:00.000Z", plan.GeneratedAt)
	})

	t.Run("sets portfolio confidence to low when data is missing", func(t *testing.T) {
		card := Card{
			CardID:              "card-missing-data",
			CardName:            "Missing Data",
			CurrentBalanceCents: 5_000,
			MinimumDueCents:     i64(100),
		}

		plan, err := GeneratePlan([]Card{card}, 1_000, Snowball, generateOpts())
		require.NoError(t, err)

		assert.Equal(t, ConfidenceLow, plan.Portfolio.Confidence)
		assert.Zero(t, plan.Portfolio.Utilization)
	})

	t.Run("sets portfolio confidence to high with complete data", func(t *testing.T) {
		plan, err := GeneratePlan(typicalCards, 100_000, Snowball, generateOpts())
		require.NoError(t, err)

		assert.Equal(t, ConfidenceHigh, plan.Portfolio.Confidence)
	})

	t.Run("portfolio utilization reflects projected balances on the ratio scale", func(t *testing.T) {
		// One card: 50k balance, 100k limit, 2.5k minimum, no surplus.
		card := makeCard(Card{CardID: "card-ratio", CardName: "Ratio"})

		plan, err := GeneratePlan([]Card{card}, 2_500, Snowball, generateOpts())
		require.NoError(t, err)

		assert.InDelta(t, 0.475, plan.Portfolio.Utilization, 0.0001)
	})

	t.Run("builds focus summary lines for minimums, extra, and pre-statement payments", func(t *testing.T) {
		plan, err := GeneratePlan(typicalCards, 100_000, Utilization, generateOpts())
		require.NoError(t, err)

		require.NotEmpty(t, plan.FocusSummary)
		assert.Equal(t, "Pay minimums on 5 cards.", plan.FocusSummary[0])
		assert.LessOrEqual(t, len(plan.FocusSummary), 5)
		for _, line := range plan.FocusSummary {
			assert.LessOrEqual(t, len(line), 140)
		}
	})
}
