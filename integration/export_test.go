package integration

import (
	"context"
	"time"
)

// SetSleepFunc replaces the backoff sleep so tests can capture delays
// instead of waiting them out.
func (c *Client) SetSleepFunc(fn func(ctx context.Context, d time.Duration) error) {
	c.sleep = fn
}
