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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimReleaseRoundTrip(t *testing.T) {
	l0, open := testRegion(t, 8, 16)
	l1 := open(1)

	require.NoError(t, l0.ClaimExtent(3, 5))
	assert.True(t, l0.ExtentOwnedBy(3, 5))
	assert.False(t, l1.ExtentOwnedBy(3, 5))

	require.NoError(t, l0.ReleaseExtent(3, 5))
	assert.False(t, l0.ExtentOwnedBy(3, 5))

	// the range is free again for any head
	require.NoError(t, l1.ClaimExtent(3, 5))
	assert.True(t, l1.ExtentOwnedBy(3, 5))
}

func TestClaimZeroCount(t *testing.T) {
	l0, _ := testRegion(t, 8, 4)
	assert.NoError(t, l0.ClaimExtent(0, 0))
	assert.Equal(t, uint64(4), freeBlocks(t, l0))
	assert.True(t, l0.ExtentOwnedBy(0, 0))
}

// The scenario of a two-head race on a 4-block region: the loser's
// partial claim rolls back completely, then a disjoint claim works.
func TestClaimConflictRollback(t *testing.T) {
	l0, open := testRegion(t, 8, 4)
	l1 := open(1)

	require.NoError(t, l0.ClaimExtent(0, 2))

	err := l1.ClaimExtent(1, 2)
	assert.ErrorIs(t, err, ErrConflict)

	// ledger exactly as before head 1's call
	assert.True(t, l0.ExtentOwnedBy(0, 2))
	_, owned, err := l1.BlockMap(QueryOwned)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), owned)

	require.NoError(t, l1.ClaimExtent(2, 2))
	assert.True(t, l0.ExtentOwnedBy(0, 2))
	assert.True(t, l1.ExtentOwnedBy(2, 2))
	assert.Equal(t, uint64(0), freeBlocks(t, l0))
}

func TestClaimOutOfRange(t *testing.T) {
	l0, _ := testRegion(t, 8, 4)

	assert.ErrorIs(t, l0.ClaimExtent(4, 1), ErrInvalidInput)
	assert.ErrorIs(t, l0.ClaimExtent(0, 5), ErrInvalidInput)
	assert.ErrorIs(t, l0.ClaimExtent(3, 2), ErrInvalidInput)
	assert.ErrorIs(t, l0.ReleaseExtent(4, 1), ErrInvalidInput)
	assert.False(t, l0.ExtentOwnedBy(4, 1))
}

func TestReleaseIdempotent(t *testing.T) {
	l0, open := testRegion(t, 8, 8)
	l1 := open(1)

	require.NoError(t, l0.ClaimExtent(0, 4))

	// head 1 releasing head 0's blocks clears nothing
	require.NoError(t, l1.ReleaseExtent(0, 4))
	assert.True(t, l0.ExtentOwnedBy(0, 4))

	require.NoError(t, l0.ReleaseExtent(0, 4))
	require.NoError(t, l0.ReleaseExtent(0, 4))
	assert.Equal(t, uint64(8), freeBlocks(t, l0))
}

func TestValidateAccessHook(t *testing.T) {
	dir := t.TempDir()
	conf := testConfig(dir, 0)
	var vetoed []uint64
	conf.ValidateAccess = func(head uint32, start, count uint64) bool {
		vetoed = append(vetoed, start)
		return start >= 2
	}
	l, err := Create(conf, 8*testBlockSize)
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	assert.ErrorIs(t, l.ClaimExtent(0, 2), ErrAccessDenied)
	assert.Equal(t, uint64(8), freeBlocks(t, l))

	assert.NoError(t, l.ClaimExtent(2, 2))
	assert.Equal(t, []uint64{0, 2}, vetoed)
}

func TestResetHead(t *testing.T) {
	l0, open := testRegion(t, 8, 8)
	l1 := open(1)

	require.NoError(t, l0.ClaimExtent(0, 2))
	require.NoError(t, l0.ClaimExtent(5, 2))
	require.NoError(t, l1.ClaimExtent(2, 2))

	require.NoError(t, l0.ResetHead())

	// head 0's claims are gone, head 1's survive
	assert.False(t, l0.ExtentOwnedBy(0, 2))
	assert.False(t, l0.ExtentOwnedBy(5, 2))
	assert.True(t, l1.ExtentOwnedBy(2, 2))
	assert.Equal(t, uint64(6), freeBlocks(t, l0))
}

// Property: on overlapping concurrent claims exactly one head
// observes success and the loser leaves no stray bits.
func TestConcurrentOverlappingClaims(t *testing.T) {
	l0, open := testRegion(t, 8, 4)
	l1 := open(1)

	for round := 0; round < 200; round++ {
		var claimed int32
		var wg sync.WaitGroup
		for _, l := range []*Ledger{l0, l1} {
			wg.Add(1)
			go func(l *Ledger) {
				defer wg.Done()
				if err := l.ClaimExtent(0, 4); err == nil {
					atomic.AddInt32(&claimed, 1)
				} else {
					assert.ErrorIs(t, err, ErrConflict)
				}
			}(l)
		}
		wg.Wait()
		assert.Equal(t, int32(1), claimed, "round %d", round)

		// winner releases; loser left nothing behind
		assert.Equal(t, uint64(0), freeBlocks(t, l0))
		require.NoError(t, l0.ReleaseExtent(0, 4))
		require.NoError(t, l1.ReleaseExtent(0, 4))
		assert.Equal(t, uint64(4), freeBlocks(t, l0))
	}
}

// Eight heads hammer ClaimAnywhere until the region fills; every
// block must end with exactly one owner bit.
func TestConcurrentFillNoDoubleOwnership(t *testing.T) {
	const blocks = 256
	l0, open := testRegion(t, 8, blocks)

	heads := []*Ledger{l0}
	for h := uint32(1); h < 8; h++ {
		heads = append(heads, open(h))
	}

	pool, err := ants.NewPool(8)
	require.NoError(t, err)
	defer pool.Release()

	var total int64
	var wg sync.WaitGroup
	for _, l := range heads {
		wg.Add(1)
		l := l
		require.NoError(t, pool.Submit(func() {
			defer wg.Done()
			for {
				got, err := l.ClaimAnywhere(1, PolicyBestEffort)
				if !assert.NoError(t, err) {
					return
				}
				if len(got) == 0 {
					return
				}
				atomic.AddInt64(&total, 1)
			}
		}))
	}
	wg.Wait()

	assert.Equal(t, int64(blocks), total)
	assert.Equal(t, uint64(0), freeBlocks(t, l0))
	for i := range l0.blocks() {
		b := loadBlock(&l0.blocks()[i])
		assert.NotZero(t, b, "block %d unowned", i)
		assert.Zero(t, b&(b-1), "block %d has multiple owners: %08b", i, b)
	}
}

func TestFlockDiscipline(t *testing.T) {
	dir := t.TempDir()
	mk := func(head uint32) *Ledger {
		conf := testConfig(dir, head)
		conf.Discipline = DisciplineFlock
		var l *Ledger
		var err error
		if head == 0 {
			l, err = Create(conf, 8*testBlockSize)
		} else {
			l, err = Open(conf)
		}
		require.NoError(t, err)
		t.Cleanup(func() { _ = l.Close() })
		return l
	}
	l0 := mk(0)
	l1 := mk(1)

	require.NoError(t, l0.ClaimExtent(0, 4))
	assert.ErrorIs(t, l1.ClaimExtent(2, 4), ErrConflict)
	assert.True(t, l0.ExtentOwnedBy(0, 4))
	assert.False(t, l1.ExtentOwnedBy(4, 2))

	require.NoError(t, l1.ClaimExtent(4, 4))
	require.NoError(t, l0.ReleaseExtent(0, 4))
	assert.Equal(t, uint64(4), freeBlocks(t, l1))
}
