package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// RouteClass scopes per-route budgets. Routes without their own cap fall
// under the default budgets only.
type RouteClass string

const (
	RoutePredict RouteClass = "predict"
	RouteExplain RouteClass = "explain"
)

// Demand is one budget to consume: a window-scoped counter key, its cap and
// the moment the window resets.
type Demand struct {
	Key     string
	Limit   int
	ResetAt time.Time
}

// Verdict is the outcome of a consume attempt. When denied, RetryAfter is
// the time remaining until the nearest exhausted window resets.
type Verdict struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Store consumes one unit from every demanded budget as a single logical
// operation: either all counters advance or none do.
type Store interface {
	ConsumeAll(ctx context.Context, demands []Demand) (Verdict, error)
}

// Limits holds the configured budgets.
type Limits struct {
	DefaultPerDay  int
	DefaultPerHour int
	PredictPerHour int
	ExplainPerHour int
}

// Limiter enforces the default day/hour budgets plus the route-specific
// hourly caps. Windows are fixed, keyed by UTC calendar boundaries.
type Limiter struct {
	store  Store
	limits Limits
	now    func() time.Time
}

// New creates a limiter over the given store.
func New(store Store, limits Limits) *Limiter {
	return &Limiter{store: store, limits: limits, now: time.Now}
}

// CheckAndConsume spends one unit of every budget that applies to the
// client/route pair, or denies without consuming anything.
func (l *Limiter) CheckAndConsume(ctx context.Context, clientID string, route RouteClass) (Verdict, error) {
	now := l.now().UTC()
	dayStart := now.Truncate(24 * time.Hour)
	hourStart := now.Truncate(time.Hour)

	demands := []Demand{
		{
			Key:     windowKey(clientID, "default", "day", dayStart),
			Limit:   l.limits.DefaultPerDay,
			ResetAt: dayStart.Add(24 * time.Hour),
		},
		{
			Key:     windowKey(clientID, "default", "hour", hourStart),
			Limit:   l.limits.DefaultPerHour,
			ResetAt: hourStart.Add(time.Hour),
		},
	}

	if cap := l.routeCap(route); cap > 0 {
		demands = append(demands, Demand{
			Key:     windowKey(clientID, string(route), "hour", hourStart),
			Limit:   cap,
			ResetAt: hourStart.Add(time.Hour),
		})
	}

	return l.store.ConsumeAll(ctx, demands)
}

func (l *Limiter) routeCap(route RouteClass) int {
	switch route {
	case RoutePredict:
		return l.limits.PredictPerHour
	case RouteExplain:
		return l.limits.ExplainPerHour
	default:
		return 0
	}
}

func windowKey(clientID, budget, window string, start time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s:%d", clientID, budget, window, start.Unix())
}
