package event

import "time"

// WeekClosed is published after a rollover has been persisted.
type WeekClosed struct {
	Username   string
	ClosedWeek int
	OpenedWeek int
	Totals     map[string]float64
	ClosedAt   time.Time
}

func (e WeekClosed) Total() float64 {
	total := 0.0
	for _, v := range e.Totals {
		total += v
	}
	return total
}
