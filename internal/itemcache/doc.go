// Package itemcache maps tracking ids to managed item wrappers so that many
// call sites can share one mutation-coherent view of an item. Entries expire
// after a configurable idle period measured from the last access; every
// eviction (idle, stale item reference, explicit, or shutdown) flushes the
// wrapper exactly once while holding the key's lock, and the outcome is
// delivered to the cache owner through Options.OnEvict.
package itemcache
