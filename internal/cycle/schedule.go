package cycle

import (
	"time"

	"ajopot/internal/models"
)

// PayoutAmount computes the pooled amount one recipient receives:
// every member except the recipient pays one contribution.
func PayoutAmount(contribution float64, memberCount int) float64 {
	if memberCount < 2 {
		return 0
	}
	return contribution * float64(memberCount-1)
}

// NextStart advances a round start by one group interval.
func NextStart(interval models.Interval, start time.Time) time.Time {
	if interval == models.IntervalWeekly {
		return start.AddDate(0, 0, 7)
	}
	return start.AddDate(0, 1, 0)
}

// LastStart returns the start date of the final round of a cycle with
// totalRounds rounds beginning at start.
func LastStart(interval models.Interval, start time.Time, totalRounds int) time.Time {
	last := start
	for i := 1; i < totalRounds; i++ {
		last = NextStart(interval, last)
	}
	return last
}

// IsPermutation reports whether order is a reordering of members with
// no omissions or duplicates.
func IsPermutation(order, members []string) bool {
	if len(order) != len(members) {
		return false
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		seen[m] = true
	}
	for _, id := range order {
		if !seen[id] {
			return false
		}
		delete(seen, id)
	}
	return len(seen) == 0
}
