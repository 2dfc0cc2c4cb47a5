package comm

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// worker is the single background goroutine consuming the action queue. It
// blocks on the control condition until stopped or woken, skips passes while
// the window is inactive and no explicit wakeup was requested, then drains
// the queue under the session lock.
//
// The wakeup flag is sticky: any number of wakeups before a pass coalesce
// into one pass, which is fine because every pass drains the entire queue.
func (c *Communication) worker() {
	defer close(c.done)
	for {
		c.ctrlMu.Lock()
		for !c.stopFlag && !c.wakeupFlag {
			c.ctrlCond.Wait()
		}
		if c.stopFlag {
			c.ctrlMu.Unlock()
			return
		}
		if !c.windowActive && !c.wakeupFlag {
			// Spurious wakeup while the window is inactive; no work owed.
			c.ctrlMu.Unlock()
			continue
		}
		c.wakeupFlag = false
		c.ctrlMu.Unlock()

		c.sessionMu.Lock()
		c.sess.ProcessActionQueue(c.ctx)
		c.sessionMu.Unlock()
	}
}

// WakeupSessionWorker requests one queue-processing pass. Safe to call from
// any goroutine, including timer callbacks; it only toggles the sticky flag
// and signals the condition.
func (c *Communication) WakeupSessionWorker() {
	c.ctrlMu.Lock()
	c.wakeupFlag = true
	c.ctrlMu.Unlock()
	c.ctrlCond.Broadcast()
}

// pollLoop is the periodic foreground poll timer. While the window is
// active it wakes the worker every interval so the recurring polling action
// runs; while inactive it stays silent to avoid background network chatter.
func (c *Communication) pollLoop() {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.ctrlMu.Lock()
			active := c.windowActive
			c.ctrlMu.Unlock()
			if !active {
				continue
			}
			log.Debug("comm: poll tick, waking session worker")
			c.WakeupSessionWorker()
		}
	}
}
