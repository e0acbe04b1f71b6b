package stream

import (
	"context"
	"time"
)

// FrameLimiter paces a capture loop to a fixed frame rate.
type FrameLimiter struct {
	ticker *time.Ticker
}

func NewFrameLimiter(fps int) *FrameLimiter {
	if fps < 1 {
		fps = 1
	}
	return &FrameLimiter{ticker: time.NewTicker(time.Second / time.Duration(fps))}
}

// Wait blocks until the next frame is due or ctx is done.
func (l *FrameLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ticker.C:
		return nil
	}
}

func (l *FrameLimiter) Stop() {
	l.ticker.Stop()
}
