package planner

import "time"

var referenceDate = time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

func i64(v int64) *int64 { return &v }

func str(s string) *string { return &s }

func makeCard(overrides Card) Card {
	base := Card{
		Issuer:              str("Test Bank"),
		CurrentBalanceCents: 50_000,
		CreditLimitCents:    i64(100_000),
		APRBps:              i64(1999),
		MinimumDueCents:     i64(2_500),
		DueDate:             str("2026-02-10"),
		StatementCloseDate:  str("2026-01-20"),
	}
	base.CardID = overrides.CardID
	base.CardName = overrides.CardName
	if overrides.CurrentBalanceCents != 0 {
		base.CurrentBalanceCents = overrides.CurrentBalanceCents
	}
	if overrides.CreditLimitCents != nil {
		base.CreditLimitCents = overrides.CreditLimitCents
	}
	if overrides.APRBps != nil {
		base.APRBps = overrides.APRBps
	}
	if overrides.MinimumDueCents != nil {
		base.MinimumDueCents = overrides.MinimumDueCents
	}
	if overrides.DueDate != nil {
		base.DueDate = overrides.DueDate
	}
	if overrides.StatementCloseDate != nil {
		base.StatementCloseDate = overrides.StatementCloseDate
	}
	return base
}

var lowBalanceCard = makeCard(Card{
	CardID:              "card-low",
	CardName:            "Low Balance",
	CurrentBalanceCents: 5_000,
	MinimumDueCents:     i64(500),
	APRBps:              i64(1599),
	DueDate:             str("2026-02-05"),
	StatementCloseDate:  str("2026-01-18"),
})

var highBalanceCard = makeCard(Card{
	CardID:              "card-high",
	CardName:            "High Balance",
	CurrentBalanceCents: 90_000,
	MinimumDueCents:     i64(3_000),
	APRBps:              i64(1299),
	DueDate:             str("2026-02-11"),
	StatementCloseDate:  str("2026-01-21"),
})

var highAprCard = makeCard(Card{
	CardID:              "card-apr",
	CardName:            "High APR",
	CurrentBalanceCents: 40_000,
	MinimumDueCents:     i64(2_000),
	APRBps:              i64(2999),
	CreditLimitCents:    i64(80_000),
	DueDate:             str("2026-02-09"),
	StatementCloseDate:  str("2026-01-19"),
})

var highUtilizationCard = makeCard(Card{
	CardID:              "card-util-high",
	CardName:            "High Util",
	CurrentBalanceCents: 70_000,
	MinimumDueCents:     i64(2_500),
	APRBps:              i64(1799),
	CreditLimitCents:    i64(80_000),
	DueDate:             str("2026-02-12"),
	StatementCloseDate:  str("2026-01-17"),
})

var lowUtilizationCard = makeCard(Card{
	CardID:              "card-util-low",
	CardName:            "Low Util",
	CurrentBalanceCents: 10_000,
	MinimumDueCents:     i64(1_500),
	APRBps:              i64(1899),
	DueDate:             str("2026-02-08"),
	StatementCloseDate:  str("2026-01-23"),
})

var typicalCards = []Card{
	lowBalanceCard,
	highBalanceCard,
	highAprCard,
	highUtilizationCard,
	lowUtilizationCard,
}

var singleCard = []Card{
	makeCard(Card{
		CardID:              "card-single",
		CardName:            "Solo",
		CurrentBalanceCents: 25_000,
		MinimumDueCents:     i64(1_200),
		CreditLimitCents:    i64(50_000),
		APRBps:              i64(1899),
		DueDate:             str("2026-02-07"),
		StatementCloseDate:  str("2026-01-16"),
	}),
}

func sumActionAmounts(actions []PlanAction) int64 {
	var total int64
	for _, action := range actions {
		total += action.AmountCents
	}
	return total
}

func findAction(actions []PlanAction, cardID string) *PlanAction {
	for i := range actions {
		if actions[i].CardID == cardID {
			return &actions[i]
		}
	}
	return nil
}
