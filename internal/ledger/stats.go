package ledger

import (
	"time"

	"server-warden/internal/moderation"
)

// WindowCounts holds cumulative rolling windows: every record counted in
// Last7 is also counted in Last30 and AllTime. The windows are never
// partitioned into disjoint buckets.
type WindowCounts struct {
	Last7   int
	Last30  int
	AllTime int
}

// Statistics maps action types to their window counts. The
// moderation.ActionTotal row aggregates across all types.
type Statistics map[moderation.ActionType]WindowCounts

// Statistics buckets every case by age.
func (l *Ledger) Statistics() (Statistics, error) {
	return l.statistics("")
}

// ModeratorStatistics buckets the cases performed by one moderator.
func (l *Ledger) ModeratorStatistics(moderatorID string) (Statistics, error) {
	return l.statistics(moderatorID)
}

func (l *Ledger) statistics(moderatorID string) (Statistics, error) {
	cases, err := l.store.AllCases()
	if err != nil {
		return nil, err
	}

	now := l.now().UTC()
	stats := Statistics{}

	bump := func(t moderation.ActionType, within7, within30 bool) {
		c := stats[t]
		c.AllTime++
		if within30 {
			c.Last30++
		}
		if within7 {
			c.Last7++
		}
		stats[t] = c
	}

	for _, a := range cases {
		if moderatorID != "" && a.ModeratorID != moderatorID {
			continue
		}
		age := now.Sub(a.Timestamp)
		within7 := age <= 7*24*time.Hour
		within30 := age <= 30*24*time.Hour
		bump(a.Type, within7, within30)
		bump(moderation.ActionTotal, within7, within30)
	}

	return stats, nil
}
