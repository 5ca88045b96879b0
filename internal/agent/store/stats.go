package store

import "time"

// DayLayout formats the calendar day counters belong to.
const DayLayout = "2006-01-02"

// Stats are the agent's local block counters.
type Stats struct {
	BlockedToday int64  `json:"blocked_today"`
	TotalBlocked int64  `json:"total_blocked"`
	Streak       int    `json:"streak"`
	Day          string `json:"day"`
}

// Rollover moves st to the day of now. Each day that ends with blocks grows
// the streak and each day without resets it, so skipping a day entirely also
// resets. BlockedToday restarts at zero.
func (st Stats) Rollover(now time.Time) Stats {
	today := now.Format(DayLayout)
	if st.Day == today {
		return st
	}

	if st.Day != "" {
		if st.BlockedToday > 0 && st.Day == now.AddDate(0, 0, -1).Format(DayLayout) {
			st.Streak++
		} else {
			st.Streak = 0
		}
	}

	st.BlockedToday = 0
	st.Day = today
	return st
}

// Record counts one block at now, rolling the day over first.
func (st Stats) Record(now time.Time) Stats {
	st = st.Rollover(now)
	st.BlockedToday++
	st.TotalBlocked++
	return st
}
