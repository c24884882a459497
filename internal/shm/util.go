package shm

import (
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// PathExists reports whether the path can be stat'd.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CanCreateOnDevShm reports whether /dev/shm has room for a file of
// the given size. Paths outside /dev/shm are not checked and always
// pass.
func CanCreateOnDevShm(size uint64, path string) bool {
	if !strings.HasPrefix(path, "/dev/shm") {
		return true
	}
	stat, err := disk.Usage("/dev/shm")
	if err != nil {
		return true
	}
	return stat.Free >= size
}
