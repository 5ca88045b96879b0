package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// FailureDelay pads failed logins to Base plus a random share of Jitter, so an
// unknown email and a wrong password take about as long as each other.
type FailureDelay struct {
	Base   time.Duration
	Jitter time.Duration
}

// DefaultFailureDelay is used by the API server.
var DefaultFailureDelay = FailureDelay{Base: 250 * time.Millisecond, Jitter: 100 * time.Millisecond}

// target returns Base plus a uniformly drawn jitter. crypto/rand keeps the
// padding unpredictable to the caller.
func (d FailureDelay) target() time.Duration {
	if d.Jitter <= 0 {
		return d.Base
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(d.Jitter)))
	if err != nil {
		return d.Base
	}
	return d.Base + time.Duration(n.Int64())
}

// WaitFrom blocks until the padded duration has elapsed since start or ctx is
// done, whichever comes first.
func (d FailureDelay) WaitFrom(ctx context.Context, start time.Time) {
	remaining := d.target() - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
