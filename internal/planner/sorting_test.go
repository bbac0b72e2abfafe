package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateUtilization(t *testing.T) {
	t.Run("returns 0 when credit limit is missing or zero", func(t *testing.T) {
		missingLimit := Card{CardID: "card-missing", CardName: "Missing Limit", CurrentBalanceCents: 10_000}
		zeroLimit := Card{CardID: "card-zero", CardName: "Zero Limit", CurrentBalanceCents: 10_000, CreditLimitCents: i64(0)}

		assert.Zero(t, CalculateUtilization(missingLimit))
		assert.Zero(t, CalculateUtilization(zeroLimit))
	})

	t.Run("returns percentage and can exceed 100 when over limit", func(t *testing.T) {
		card := makeCard(Card{
			CardID:              "card-over",
			CardName:            "Over Limit",
			CreditLimitCents:    i64(10_000),
			CurrentBalanceCents: 15_000,
		})

		assert.InDelta(t, 150, CalculateUtilization(card), 0.0001)
	})
}

func TestSortCardsByStrategy(t *testing.T) {
	t.Run("snowball sorts smallest balance first without mutating input", func(t *testing.T) {
		cards := []Card{highBalanceCard, lowBalanceCard, highAprCard}
		originalOrder := []string{cards[0].CardID, cards[1].CardID, cards[2].CardID}

		sorted := SortCardsByStrategy(cards, Snowball)

		assert.Equal(t, lowBalanceCard.CardID, sorted[0].CardID)
		for i, card := range cards {
			assert.Equal(t, originalOrder[i], card.CardID)
		}
	})

	t.Run("avalanche sorts highest APR first", func(t *testing.T) {
		cards := []Card{highBalanceCard, lowBalanceCard, highAprCard}
		sorted := SortCardsByStrategy(cards, Avalanche)

		assert.Equal(t, highAprCard.CardID, sorted[0].CardID)
	})

	t.Run("avalanche treats missing APR as 0 and sorts it last", func(t *testing.T) {
		noApr := Card{CardID: "card-no-apr", CardName: "No APR", CurrentBalanceCents: 1_000}
		sorted := SortCardsByStrategy([]Card{noApr, highAprCard}, Avalanche)

		assert.Equal(t, "card-no-apr", sorted[len(sorted)-1].CardID)
	})

	t.Run("utilization sorts highest utilization first", func(t *testing.T) {
		cards := []Card{lowUtilizationCard, highUtilizationCard}
		sorted := SortCardsByStrategy(cards, Utilization)

		assert.Equal(t, highUtilizationCard.CardID, sorted[0].CardID)
	})
}
