//go:build linux

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Map opens (or creates and sizes) the backing file and maps it
// shared. The permissions are deliberately broad: every cooperating
// head process must be able to open the same state file.
func Map(opts MapOptions) (*MappedRegion, error) {
	flags := unix.O_RDWR
	if opts.Create {
		flags |= unix.O_CREAT
	}
	fd, err := unix.Open(opts.Path, flags, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Path, err)
	}
	size := opts.Size
	if opts.Create {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("ftruncate %s: %w", opts.Path, err)
		}
	} else {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("fstat %s: %w", opts.Path, err)
		}
		size = int(st.Size)
	}
	if size <= 0 {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("map %s: empty backing file", opts.Path)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap %s: %w", opts.Path, err)
	}
	return &MappedRegion{Data: data, Fd: fd, Path: opts.Path}, nil
}

// Unmap releases the mapping and closes the fd. It never unlinks the
// backing file; destruction is an explicit, separate decision.
func Unmap(r *MappedRegion) error {
	if r == nil || r.Data == nil {
		return nil
	}
	if err := unix.Munmap(r.Data); err != nil {
		return fmt.Errorf("munmap %s: %w", r.Path, err)
	}
	r.Data = nil
	if err := unix.Close(r.Fd); err != nil {
		return fmt.Errorf("close %s: %w", r.Path, err)
	}
	return nil
}

// Sync flushes the mapping to the backing store.
func Sync(r *MappedRegion) error {
	if r == nil || r.Data == nil {
		return nil
	}
	return unix.Msync(r.Data, unix.MS_SYNC)
}
