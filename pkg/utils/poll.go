package utils

import (
	"context"
	"time"
)

// Sleeper waits for d, returning early with the context error if ctx ends first.
type Sleeper func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poll runs check at most attempts times, waiting interval before each run,
// until check reports done. Exhausting the attempts is not an error: Poll then
// returns false and a nil error.
func Poll(ctx context.Context, attempts int, interval time.Duration, sleep Sleeper, check func(ctx context.Context) (bool, error)) (bool, error) {
	if sleep == nil {
		sleep = Sleep
	}

	for i := 0; i < attempts; i++ {
		if err := sleep(ctx, interval); err != nil {
			return false, err
		}

		done, err := check(ctx)
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
	}
	return false, nil
}
