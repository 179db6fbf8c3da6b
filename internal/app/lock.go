package app

import "opkg/internal/adapters"

// AcquireLock takes the destination's advisory single-instance lock
// (spec §5). Callers that mutate installed state must hold it for
// the duration of the command; query commands never call this.
func (c *Context) AcquireLock() (*adapters.Lock, error) {
	return adapters.Acquire(c.Config.LockFile)
}
