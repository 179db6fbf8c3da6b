package app

import "opkg/internal/query"

// Query returns the read-only query facade bound to the loaded pool
// and primary destination (spec §4.9/§6's list/info/files/search and
// forward/reverse dependency verbs). Callers invoke its methods
// directly; app adds nothing beyond wiring pool+dest, since none of
// these operations mutate state.
func (c *Context) Query() query.Facade {
	return query.New(c.Pool, c.Dest)
}
