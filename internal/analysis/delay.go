package analysis

import (
	"context"
	"time"
)

// Delay waits d or until ctx is done, whichever comes first. Local
// services use it to keep the latency profile of the real scorers.
func Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
