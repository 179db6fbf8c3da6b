package app

// Clean purges the download cache directory (spec §6 "clean").
func (c *Context) Clean() error {
	return c.Cache.Clean()
}
