package cache

// ScopedKeyer wraps a Keyer with a prefix, so that several deployments or
// tool versions can share one Redis instance without reading each other's
// entries.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "qarchsearch:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SearchKey generates a prefixed key for search report caching.
func (k *ScopedKeyer) SearchKey(circuitHash, deviceHash string, opts SearchKeyOpts) string {
	return k.prefix + k.inner.SearchKey(circuitHash, deviceHash, opts)
}
