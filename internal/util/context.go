package util

import (
	"context"
	"time"
)

// Context keys.
type ctxKey string

const ctxKeyStartTime ctxKey = "start_time"

// ContextWithStartTime adds a start time to the context.
func ContextWithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyStartTime, t)
}

// StartTimeFromContext extracts the start time from context.
func StartTimeFromContext(ctx context.Context) time.Time {
	if v, ok := ctx.Value(ctxKeyStartTime).(time.Time); ok {
		return v
	}
	return time.Time{}
}

// ElapsedTime returns the elapsed time since the start time in context.
func ElapsedTime(ctx context.Context) time.Duration {
	startTime := StartTimeFromContext(ctx)
	if startTime.IsZero() {
		return 0
	}
	return time.Since(startTime)
}
