package hysteria

import (
	"context"
	"math/rand/v2"
	"time"
)

// backoff is jittered exponential delay with a flap guard: too many
// failures inside the window switch to a fixed cool-down.
type backoff struct {
	base      time.Duration
	factor    float64
	max       time.Duration
	jitter    float64
	flapN     int
	flapWin   time.Duration
	cool      time.Duration
	attempt   int
	failTimes []time.Time
	rand      func() float64
	now       func() time.Time
}

func newBackoff() *backoff {
	return &backoff{
		base:    500 * time.Millisecond,
		factor:  2,
		max:     30 * time.Second,
		jitter:  0.2,
		flapN:   5,
		flapWin: 60 * time.Second,
		cool:    60 * time.Second,
		rand:    rand.Float64,
		now:     time.Now,
	}
}

func (b *backoff) next() time.Duration {
	now := b.now()
	b.failTimes = append(b.failTimes, now)
	cut := now.Add(-b.flapWin)
	n := 0
	for _, t := range b.failTimes {
		if t.After(cut) {
			b.failTimes[n] = t
			n++
		}
	}
	b.failTimes = b.failTimes[:n]
	if len(b.failTimes) >= b.flapN {
		b.attempt = 0
		return b.cool
	}

	d := float64(b.base)
	for i := 0; i < b.attempt; i++ {
		d *= b.factor
		if d > float64(b.max) {
			break
		}
	}
	if d > float64(b.max) {
		d = float64(b.max)
	}
	d *= 1 + (b.rand()*2-1)*b.jitter
	b.attempt++
	return time.Duration(d)
}

func (b *backoff) reset() { b.attempt = 0 }

// sleep waits d or until ctx is done; false means ctx ended.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
