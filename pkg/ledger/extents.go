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

// Extent is a contiguous run of capacity blocks requested as a single
// atomic unit.
type Extent struct {
	StartBlock uint64
	BlockCount uint64
}

// Policy controls how multi-extent claims treat a shortfall.
type Policy int

const (
	// PolicyAllOrNothing rolls every claim of the call back if any
	// part cannot be had.
	PolicyAllOrNothing Policy = iota
	// PolicyBestEffort keeps whatever was claimed and reports it.
	PolicyBestEffort
)

// ClaimExtents claims a caller-chosen list of extents in order. Each
// extent is claimed all or nothing; under PolicyAllOrNothing a
// conflict anywhere rolls back every extent already claimed by this
// call, under PolicyBestEffort conflicting extents are skipped. The
// returned list holds the extents actually claimed.
func (l *Ledger) ClaimExtents(extents []Extent, policy Policy) ([]Extent, error) {
	for _, e := range extents {
		if e.BlockCount == 0 {
			continue
		}
		if err := l.checkRange(e.StartBlock, e.BlockCount); err != nil {
			return nil, err
		}
		if v := l.conf.ValidateAccess; v != nil && !v(l.conf.HeadID, e.StartBlock, e.BlockCount) {
			return nil, fmt.Errorf("%w: head %d blocks [%d,%d)",
				ErrAccessDenied, l.conf.HeadID, e.StartBlock, e.StartBlock+e.BlockCount)
		}
	}

	unlock, err := l.lockRegion(true)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var claimed []Extent
	for _, e := range extents {
		if e.BlockCount == 0 {
			continue
		}
		switch err := l.claimRange(e.StartBlock, e.BlockCount); err {
		case nil:
			claimed = append(claimed, e)
		case ErrConflict:
			if policy == PolicyBestEffort {
				continue
			}
			l.clearExtents(claimed)
			l.countClaim(ErrConflict)
			return nil, ErrConflict
		default:
			l.clearExtents(claimed)
			l.countClaim(err)
			return nil, err
		}
	}
	l.countClaim(nil)
	return claimed, nil
}

// ClaimAnywhere claims count blocks with no placement constraint,
// first-fit over the whole region. The result is coalesced into
// contiguous extents. Under PolicyAllOrNothing a shortfall rolls
// everything back and returns ErrConflict; under PolicyBestEffort the
// call returns whatever it could claim.
func (l *Ledger) ClaimAnywhere(count uint64, policy Policy) ([]Extent, error) {
	nb := l.BlockCount()
	if count == 0 || count > nb {
		return nil, fmt.Errorf("%w: cannot claim %d of %d blocks", ErrInvalidInput, count, nb)
	}

	unlock, err := l.lockRegion(true)
	if err != nil {
		return nil, err
	}
	defer unlock()

	blocks := l.blocks()
	bit := l.headBit()
	ids := make([]uint64, 0, count)
	for i := uint64(0); i < nb && uint64(len(ids)) < count; i++ {
		if l.tryClaimBlock(blocks, i, bit) {
			ids = append(ids, i)
		}
	}

	if policy == PolicyAllOrNothing && uint64(len(ids)) != count {
		for _, id := range ids {
			clearBlockBit(&blocks[id], bit)
		}
		l.countClaim(ErrConflict)
		return nil, ErrConflict
	}
	l.countClaim(nil)
	return coalesceBlocks(ids), nil
}

// ReleaseExtents releases a list of extents; idempotent like
// ReleaseExtent.
func (l *Ledger) ReleaseExtents(extents []Extent) error {
	for _, e := range extents {
		if e.BlockCount == 0 {
			continue
		}
		if err := l.checkRange(e.StartBlock, e.BlockCount); err != nil {
			return err
		}
	}
	unlock, err := l.lockRegion(true)
	if err != nil {
		return err
	}
	defer unlock()

	l.clearExtents(extents)
	for _, e := range extents {
		releasedBlocksTotal.Add(float64(e.BlockCount))
	}
	return nil
}

func (l *Ledger) tryClaimBlock(blocks []byte, i uint64, bit uint8) bool {
	if l.fl != nil {
		if blocks[i] != 0 {
			return false
		}
		blocks[i] = bit
		return true
	}
	return casBlock(&blocks[i], 0, bit)
}

// clearExtents clears this head's bit over a list of extents. Callers
// hold the region lock under DisciplineFlock.
func (l *Ledger) clearExtents(extents []Extent) {
	blocks := l.blocks()
	bit := l.headBit()
	for _, e := range extents {
		for i := uint64(0); i < e.BlockCount; i++ {
			clearBlockBit(&blocks[e.StartBlock+i], bit)
		}
	}
}

// coalesceBlocks folds an ascending list of block ids into contiguous
// extents.
func coalesceBlocks(ids []uint64) []Extent {
	var out []Extent
	for i, id := range ids {
		if i > 0 && id == ids[i-1]+1 {
			out[len(out)-1].BlockCount++
			continue
		}
		out = append(out, Extent{StartBlock: id, BlockCount: 1})
	}
	return out
}
