// Package ledger implements the shared capacity ownership ledger for
// multi-head memory devices: a memory-mapped region, attached by
// several crash-independent head processes, that records which head
// owns each fixed-size capacity block and claims or releases
// contiguous extents atomically with respect to concurrent claimants.
//
// Each head opens the region through a Ledger handle bound to its
// head identity. Claims are all or nothing: a conflicting claim rolls
// back completely and returns ErrConflict with the ledger untouched.
// Two synchronization disciplines are available, lock-free per-block
// atomics (the default) and an advisory whole-region file lock; all
// heads of one region must use the same one.
package ledger
