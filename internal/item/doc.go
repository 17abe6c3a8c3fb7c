// Package item defines the boundary between crafty and the host's item
// representation. Items are immutable snapshots: every write through an
// attribute store hands back a new snapshot which callers must thread forward.
// The package also reserves the attribute key used for identity tracking so
// that the registry and the tracker agree on it without importing each other.
package item
