package comm

import (
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// refreshSafetyMarginMS is subtracted from the token lifetime so the
	// refresh fires ~66.6s before actual expiry, absorbing network latency.
	refreshSafetyMarginMS = 66666

	// refreshFloorMS prevents refresh storms when the server returns a
	// near-immediate expiry.
	refreshFloorMS = 60000
)

// refreshDelay computes the one-shot timer delay for a token that expires in
// secondsUntilExpiry: max(seconds*1000 - 66666, 60000) milliseconds.
func refreshDelay(secondsUntilExpiry int64) time.Duration {
	ms := secondsUntilExpiry*1000 - refreshSafetyMarginMS
	if ms < refreshFloorMS {
		ms = refreshFloorMS
	}
	return time.Duration(ms) * time.Millisecond
}

// scheduleRefresh cancels any pending refresh timer and arms a new one-shot
// timer. On fire it enqueues a refresh action; it performs no network I/O
// itself.
func (c *Communication) scheduleRefresh(secondsUntilExpiry int64) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}
	delay := refreshDelay(secondsUntilExpiry)
	log.Debugf("comm: token refresh scheduled in %s", delay)
	c.refreshTimer = time.AfterFunc(delay, c.EnqueueRefresh)
}

// cancelRefreshTimer stops the pending refresh timer, if any.
func (c *Communication) cancelRefreshTimer() {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}
