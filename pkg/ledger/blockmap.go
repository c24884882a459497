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

import (
	"fmt"

	"github.com/Workiva/go-datastructures/bitarray"
)

// MapQuery selects what BlockMap reports.
type MapQuery int

const (
	// QueryFree selects blocks owned by no head.
	QueryFree MapQuery = iota
	// QueryOwned selects blocks owned by this head.
	QueryOwned
)

// Status reports the total and currently free block counts. The
// layout carries no counters, so free is a scan; the answer is a
// snapshot and can be stale by the time the caller acts on it.
func (l *Ledger) Status() (total, free uint64, err error) {
	unlock, err := l.lockRegion(false)
	if err != nil {
		return 0, 0, err
	}
	defer unlock()

	blocks := l.blocks()
	for i := range blocks {
		if loadBlock(&blocks[i]) == 0 {
			free++
		}
	}
	return l.BlockCount(), free, nil
}

// BlockMap returns a bitmap with one bit per block, set for every
// block matching the query, plus the number of matches.
func (l *Ledger) BlockMap(q MapQuery) (bitarray.BitArray, uint64, error) {
	if q != QueryFree && q != QueryOwned {
		return nil, 0, fmt.Errorf("%w: unknown block map query %d", ErrInvalidInput, q)
	}
	unlock, err := l.lockRegion(false)
	if err != nil {
		return nil, 0, err
	}
	defer unlock()

	blocks := l.blocks()
	bit := l.headBit()
	out := bitarray.NewBitArray(uint64(len(blocks)))
	var matches uint64
	for i := range blocks {
		v := loadBlock(&blocks[i])
		if (q == QueryFree && v == 0) || (q == QueryOwned && v&bit != 0) {
			if err := out.SetBit(uint64(i)); err != nil {
				return nil, 0, err
			}
			matches++
		}
	}
	return out, matches, nil
}
