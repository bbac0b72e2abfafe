package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatePayments(t *testing.T) {
	t.Run("allocates only minimums when no extra cash is available", func(t *testing.T) {
		cards := []Card{
			makeCard(Card{CardID: "card-a", CardName: "Card A", CurrentBalanceCents: 12_000, MinimumDueCents: i64(1_000)}),
			makeCard(Card{CardID: "card-b", CardName: "Card B", CurrentBalanceCents: 8_000, MinimumDueCents: i64(500)}),
		}

		actions := AllocatePayments(cards, 1_500, Snowball, referenceDate)

		require.Len(t, actions, 2)
		assert.Equal(t, int64(1_500), sumActionAmounts(actions))
		for _, action := range actions {
			assert.Equal(t, ActionByDueDate, action.ActionType)
			assert.Equal(t, 0.5, action.Priority)
			assert.Equal(t, []string{TagMinimumPayment}, action.ReasonTags)
		}
	})

	t.Run("distributes extra cash with snowball strategy", func(t *testing.T) {
		cards := []Card{
			makeCard(Card{CardID: "card-small", CardName: "Small Balance", CurrentBalanceCents: 5_000, MinimumDueCents: i64(500)}),
			makeCard(Card{CardID: "card-large", CardName: "Large Balance", CurrentBalanceCents: 15_000, MinimumDueCents: i64(500)}),
		}

		actions := AllocatePayments(cards, 4_000, Snowball, referenceDate)

		small := findAction(actions, "card-small")
		large := findAction(actions, "card-large")
		require.NotNil(t, small)
		require.NotNil(t, large)
		assert.Equal(t, int64(3_500), small.AmountCents)
		assert.Equal(t, int64(500), large.AmountCents)
		assert.Contains(t, small.ReasonTags, TagStability)
	})

	t.Run("distributes extra cash with avalanche strategy", func(t *testing.T) {
		cards := []Card{
			makeCard(Card{CardID: "card-low-apr", CardName: "Low APR", CurrentBalanceCents: 10_000, MinimumDueCents: i64(500), APRBps: i64(999)}),
			makeCard(Card{CardID: "card-high-apr", CardName: "High APR", CurrentBalanceCents: 10_000, MinimumDueCents: i64(500), APRBps: i64(2999)}),
		}

		actions := AllocatePayments(cards, 3_000, Avalanche, referenceDate)

		highApr := findAction(actions, "card-high-apr")
		require.NotNil(t, highApr)
		assert.Equal(t, int64(2_500), highApr.AmountCents)
		assert.Contains(t, highApr.ReasonTags, TagAPRPriority)
	})

	t.Run("adds utilization actions before statement close", func(t *testing.T) {
		cards := []Card{highUtilizationCard, lowUtilizationCard}

		actions := AllocatePayments(cards, 30_000, Utilization, referenceDate)

		var beforeActions []PlanAction
		for _, action := range actions {
			if action.ActionType == ActionBeforeStatementClose {
				beforeActions = append(beforeActions, action)
			}
		}
		require.NotEmpty(t, beforeActions)
		assert.Equal(t, *highUtilizationCard.StatementCloseDate, beforeActions[0].TargetDate)
		assert.Equal(t, 0.9, beforeActions[0].Priority)
		assert.Equal(t, []string{TagUtilizationReporting}, beforeActions[0].ReasonTags)
	})

	t.Run("utilization pays down to the 30 percent reporting target", func(t *testing.T) {
		// Balance 70k after a 2.5k minimum is 67.5k; 30% of the 80k limit is
		// 24k, so the pre-statement payment is capped at 43.5k.
		actions := AllocatePayments([]Card{highUtilizationCard}, 100_000, Utilization, referenceDate)

		var before *PlanAction
		for i := range actions {
			if actions[i].ActionType == ActionBeforeStatementClose {
				before = &actions[i]
			}
		}
		require.NotNil(t, before)
		assert.Equal(t, int64(43_500), before.AmountCents)
	})

	t.Run("uses snowball fallback after utilization payments", func(t *testing.T) {
		cards := []Card{highUtilizationCard, lowBalanceCard, highAprCard}

		actions := AllocatePayments(cards, 80_000, Utilization, referenceDate)

		snowballTarget := findAction(actions, lowBalanceCard.CardID)
		require.NotNil(t, snowballTarget)
		assert.Greater(t, snowballTarget.AmountCents, *lowBalanceCard.MinimumDueCents)
	})

	t.Run("cards without a limit do not break the utilization pass", func(t *testing.T) {
		noLimit := Card{
			CardID:              "card-no-limit",
			CardName:            "No Limit",
			CurrentBalanceCents: 40_000,
			MinimumDueCents:     i64(1_000),
			StatementCloseDate:  str("2026-01-19"),
		}

		actions := AllocatePayments([]Card{noLimit}, 10_000, Utilization, referenceDate)

		// Utilization is 0 with no limit, so the surplus falls through to
		// the snowball rule on the due-date action.
		require.Len(t, actions, 1)
		assert.Equal(t, ActionByDueDate, actions[0].ActionType)
		assert.Equal(t, int64(10_000), actions[0].AmountCents)
	})

	t.Run("falls back to reference plus 30 days when due date is invalid", func(t *testing.T) {
		card := makeCard(Card{
			CardID:              "card-invalid-date",
			CardName:            "Invalid Date",
			DueDate:             str("invalid"),
			CurrentBalanceCents: 5_000,
			MinimumDueCents:     i64(500),
		})

		actions := AllocatePayments([]Card{card}, 500, Snowball, referenceDate)

		require.Len(t, actions, 1)
		assert.Equal(t, "2026-02-14", actions[0].TargetDate)
	})

	t.Run("treats missing minimums as zero", func(t *testing.T) {
		card := Card{CardID: "card-no-min", CardName: "No Minimum", CurrentBalanceCents: 10_000}

		actions := AllocatePayments([]Card{card}, 1_000, Snowball, referenceDate)

		require.Len(t, actions, 1)
		assert.Equal(t, int64(1_000), actions[0].AmountCents)
	})

	t.Run("does not mutate the caller's card slice", func(t *testing.T) {
		cards := []Card{highBalanceCard, lowBalanceCard}
		before := []string{cards[0].CardID, cards[1].CardID}

		AllocatePayments(cards, 50_000, Snowball, referenceDate)

		assert.Equal(t, before, []string{cards[0].CardID, cards[1].CardID})
	})

	t.Run("identical inputs produce identical action lists", func(t *testing.T) {
		first := AllocatePayments(typicalCards, 50_000, Utilization, referenceDate)
		second := AllocatePayments(typicalCards, 50_000, Utilization, referenceDate)

		assert.Equal(t, first, second)
	})
}
