package layout

type cacheEntry struct {
	Layout TypeLayout
	Err    *LayoutError
}

type cache struct {
	byStruct map[string]*cacheEntry
}

func newCache() *cache {
	return &cache{byStruct: make(map[string]*cacheEntry, 16)}
}

func (c *cache) get(name string) (*cacheEntry, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.byStruct[name]
	return e, ok
}

func (c *cache) put(name string, e *cacheEntry) {
	if c == nil {
		return
	}
	if e == nil {
		delete(c.byStruct, name)
		return
	}
	c.byStruct[name] = e
}
