package shm

import (
	"sync/atomic"
	"unsafe"
)

// The ownership ledger is a byte array in shared memory and
// sync/atomic has no 8-bit operations, so these emulate them on the
// containing aligned 32-bit word. Mappings are page granular, so the
// containing word of any mapped byte is itself always mapped.

var bigEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 0
}()

func wordFor(addr *uint8) (word *uint32, shift uint) {
	// The pointer round-trip must stay in one expression to keep
	// provenance; a stored uintptr converted back trips checkptr.
	word = (*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(addr)) &^ 3))
	shift = uint(uintptr(unsafe.Pointer(addr))&3) * 8
	if bigEndian {
		shift = 24 - shift
	}
	return word, shift
}

// LoadUint8 atomically loads *addr.
func LoadUint8(addr *uint8) uint8 {
	word, shift := wordFor(addr)
	return uint8(atomic.LoadUint32(word) >> shift)
}

// CompareAndSwapUint8 atomically replaces *addr with new if it holds old.
func CompareAndSwapUint8(addr *uint8, old, new uint8) bool {
	word, shift := wordFor(addr)
	mask := uint32(0xff) << shift
	for {
		w := atomic.LoadUint32(word)
		if uint8(w>>shift) != old {
			return false
		}
		nw := (w &^ mask) | uint32(new)<<shift
		if atomic.CompareAndSwapUint32(word, w, nw) {
			return true
		}
	}
}

// AndUint8 atomically stores *addr & val and returns the previous value.
func AndUint8(addr *uint8, val uint8) uint8 {
	word, shift := wordFor(addr)
	mask := uint32(0xff) << shift
	for {
		w := atomic.LoadUint32(word)
		prev := uint8(w >> shift)
		nw := (w &^ mask) | uint32(prev&val)<<shift
		if atomic.CompareAndSwapUint32(word, w, nw) {
			return prev
		}
	}
}

// OrUint8 atomically stores *addr | val and returns the previous value.
func OrUint8(addr *uint8, val uint8) uint8 {
	word, shift := wordFor(addr)
	mask := uint32(0xff) << shift
	for {
		w := atomic.LoadUint32(word)
		prev := uint8(w >> shift)
		nw := (w &^ mask) | uint32(prev|val)<<shift
		if atomic.CompareAndSwapUint32(word, w, nw) {
			return prev
		}
	}
}
