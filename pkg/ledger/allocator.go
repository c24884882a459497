/*
 * Copyright 2026 Ledger-SHM Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ledger

import "fmt"

// ClaimExtent claims the blocks [startBlock, startBlock+count) for
// this head, all or nothing: after it returns, either every block in
// the range carries this head's bit, or none do. A zero count is a
// no-op success. On contention the already-claimed prefix is rolled
// back and ErrConflict returned with the ledger in its pre-call
// state. Two heads racing on overlapping ranges can both see
// ErrConflict transiently even when the range would ultimately be
// free; callers retry above this layer.
func (l *Ledger) ClaimExtent(startBlock, count uint64) error {
	if count == 0 {
		return nil
	}
	if err := l.checkRange(startBlock, count); err != nil {
		return err
	}
	if v := l.conf.ValidateAccess; v != nil && !v(l.conf.HeadID, startBlock, count) {
		return fmt.Errorf("%w: head %d blocks [%d,%d)",
			ErrAccessDenied, l.conf.HeadID, startBlock, startBlock+count)
	}

	unlock, err := l.lockRegion(true)
	if err != nil {
		return err
	}
	defer unlock()

	err = l.claimRange(startBlock, count)
	l.countClaim(err)
	return err
}

// claimRange is the discipline-specific claim of a validated range.
// Under DisciplineFlock the caller holds the region lock.
func (l *Ledger) claimRange(startBlock, count uint64) error {
	blocks := l.blocks()
	bit := l.headBit()

	if l.fl != nil {
		// Lock discipline: pre-scan then set. No observer can see a
		// partial mutation, so there is nothing to roll back.
		for i := uint64(0); i < count; i++ {
			if blocks[startBlock+i] != 0 {
				return ErrConflict
			}
		}
		for i := uint64(0); i < count; i++ {
			blocks[startBlock+i] = bit
		}
		return nil
	}

	for i := uint64(0); i < count; i++ {
		if !casBlock(&blocks[startBlock+i], 0, bit) {
			// Roll back the claimed prefix; the conflicting block was
			// never ours and keeps its value.
			for j := i; j > 0; j-- {
				clearBlockBit(&blocks[startBlock+j-1], bit)
			}
			internalLogger.debugf("head %d claim [%d,%d) conflicted at block %d",
				l.conf.HeadID, startBlock, startBlock+count, startBlock+i)
			return ErrConflict
		}
	}
	return nil
}

// ReleaseExtent unconditionally clears this head's bit on every block
// in the range. Releasing blocks this head does not own is a no-op,
// which makes the call idempotent.
func (l *Ledger) ReleaseExtent(startBlock, count uint64) error {
	if count == 0 {
		return nil
	}
	if err := l.checkRange(startBlock, count); err != nil {
		return err
	}
	unlock, err := l.lockRegion(true)
	if err != nil {
		return err
	}
	defer unlock()

	blocks := l.blocks()
	bit := l.headBit()
	for i := uint64(0); i < count; i++ {
		clearBlockBit(&blocks[startBlock+i], bit)
	}
	releasedBlocksTotal.Add(float64(count))
	return nil
}

// ExtentOwnedBy reports whether every block in the range has exactly
// this head's bit set and no other.
func (l *Ledger) ExtentOwnedBy(startBlock, count uint64) bool {
	if count == 0 {
		return true
	}
	if l.checkRange(startBlock, count) != nil {
		return false
	}
	unlock, err := l.lockRegion(false)
	if err != nil {
		internalLogger.errorf("query lock: %v", err)
		return false
	}
	defer unlock()

	blocks := l.blocks()
	bit := l.headBit()
	for i := uint64(0); i < count; i++ {
		if loadBlock(&blocks[startBlock+i]) != bit {
			return false
		}
	}
	return true
}

// ResetHead clears this head's bit on every block, the device-reset
// path. It doubles as the manual recovery step after this head
// crashed while holding claims; nothing runs it automatically.
func (l *Ledger) ResetHead() error {
	unlock, err := l.lockRegion(true)
	if err != nil {
		return err
	}
	defer unlock()

	blocks := l.blocks()
	bit := l.headBit()
	for i := range blocks {
		clearBlockBit(&blocks[i], bit)
	}
	internalLogger.infof("head %d reset: released all owned blocks", l.conf.HeadID)
	return nil
}

func (l *Ledger) checkRange(start, count uint64) error {
	nb := l.BlockCount()
	if start >= nb || count > nb-start {
		return fmt.Errorf("%w: blocks [%d,%d) out of range, region has %d",
			ErrInvalidInput, start, start+count, nb)
	}
	return nil
}
