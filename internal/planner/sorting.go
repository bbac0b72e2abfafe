package planner

import "sort"

// SortCardsByStrategy returns a new slice of cards ordered by the given
// strategy. The input slice is never mutated. Ties keep their input order.
func SortCardsByStrategy(cards []Card, strategy Strategy) []Card {
	sorted := make([]Card, len(cards))
	copy(sorted, cards)

	switch strategy {
	case Snowball:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CurrentBalanceCents < sorted[j].CurrentBalanceCents
		})
	case Avalanche:
		sort.SliceStable(sorted, func(i, j int) bool {
			return aprBps(sorted[i]) > aprBps(sorted[j])
		})
	case Utilization:
		sort.SliceStable(sorted, func(i, j int) bool {
			return CalculateUtilization(sorted[i]) > CalculateUtilization(sorted[j])
		})
	}

	return sorted
}
