package probe

import (
	"context"
	"time"

	"github.com/n8nhub/n8nhub/pkg/models"
)

// RetryingProber wraps a Prober with a bounded number of attempts. With
// Attempts=1 behavior is identical to the bare prober; the last result wins.
type RetryingProber struct {
	Prober   *Prober
	Attempts int
	Delay    time.Duration
}

// Probe retries failed probes up to Attempts times.
func (r *RetryingProber) Probe(ctx context.Context, instance models.Instance) Result {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var result Result

	for attempt := range attempts {
		result = r.Prober.Probe(ctx, instance)
		if result.OK {
			return result
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(r.Delay):
			}
		}
	}

	return result
}
