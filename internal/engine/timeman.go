package engine

import (
	"time"
)

// TimeManager tracks the wall-clock budget of one search.
type TimeManager struct {
	startTime   time.Time
	optimumTime time.Duration // No new depth starts past this
	maximumTime time.Duration // Hard deadline checked inside the search
}

// NewTimeManager starts the clock for a search with the given budget.
func NewTimeManager(budget time.Duration) *TimeManager {
	tm := &TimeManager{startTime: time.Now()}
	tm.Init(budget)
	return tm
}

// Init restarts the clock. The optimum is half the budget: a depth started
// later than that rarely completes.
func (tm *TimeManager) Init(budget time.Duration) {
	tm.startTime = time.Now()
	if budget <= 0 {
		budget = time.Hour
	}
	tm.maximumTime = budget
	tm.optimumTime = budget / 2
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// Deadline returns the instant the budget runs out.
func (tm *TimeManager) Deadline() time.Time {
	return tm.startTime.Add(tm.maximumTime)
}

// MaximumTime returns the budget.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// ShouldStop reports whether the budget is spent.
func (tm *TimeManager) ShouldStop() bool {
	return tm.Elapsed() >= tm.maximumTime
}

// PastOptimum reports whether starting another depth is pointless.
func (tm *TimeManager) PastOptimum() bool {
	return tm.Elapsed() >= tm.optimumTime
}
