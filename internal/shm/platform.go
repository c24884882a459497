// Package shm contains platform helpers for the shared capacity
// region: mapping the backing store, byte-granular atomics over the
// mapped bytes, and /dev/shm space checks.
package shm

// MappedRegion is a live MAP_SHARED mapping of a backing file.
type MappedRegion struct {
	Data []byte
	Fd   int
	Path string
}

// MapOptions defines how a region is opened.
type MapOptions struct {
	// Path of the backing file.
	Path string
	// Size in bytes. Only used with Create; opening maps the whole file.
	Size int
	// Create opens with O_CREAT and truncates the file to Size.
	Create bool
}
