package rate

import (
	"time"

	xrate "golang.org/x/time/rate"
)

// Config holds throttle tuning parameters.
type Config struct {
	// PerMinute is the sustained submission rate. Zero disables throttling.
	PerMinute float64
	Burst     int
}

// Throttle bounds credential submissions with a token bucket.
type Throttle struct {
	limiter *xrate.Limiter
}

// NewThrottle builds a Throttle. A disabled config yields a Throttle that
// always allows.
func NewThrottle(cfg Config) *Throttle {
	if cfg.PerMinute <= 0 {
		return &Throttle{}
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	every := time.Duration(float64(time.Minute) / cfg.PerMinute)
	return &Throttle{limiter: xrate.NewLimiter(xrate.Every(every), burst)}
}

// Allow consumes a token at now or returns ErrRateLimited.
func (t *Throttle) Allow(now time.Time) error {
	if t == nil || t.limiter == nil {
		return nil
	}
	if !t.limiter.AllowN(now, 1) {
		return ErrRateLimited
	}
	return nil
}

// RetryAfter estimates how long until the next submission is allowed.
func (t *Throttle) RetryAfter(now time.Time) time.Duration {
	if t == nil || t.limiter == nil {
		return 0
	}
	r := t.limiter.ReserveN(now, 1)
	defer r.CancelAt(now)
	return r.DelayFrom(now)
}
