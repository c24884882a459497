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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	l0, _ := testRegion(t, 8, 16)

	total, free, err := l0.Status()
	require.NoError(t, err)
	assert.Equal(t, uint64(16), total)
	assert.Equal(t, uint64(16), free)

	require.NoError(t, l0.ClaimExtent(0, 5))
	total, free, err = l0.Status()
	require.NoError(t, err)
	assert.Equal(t, uint64(16), total)
	assert.Equal(t, uint64(11), free)
}

func TestBlockMapQueries(t *testing.T) {
	l0, open := testRegion(t, 8, 8)
	l1 := open(1)

	require.NoError(t, l0.ClaimExtent(0, 2))
	require.NoError(t, l1.ClaimExtent(4, 2))

	free, n, err := l0.BlockMap(QueryFree)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
	for _, i := range []uint64{2, 3, 6, 7} {
		set, err := free.GetBit(i)
		require.NoError(t, err)
		assert.True(t, set, "block %d should be free", i)
	}
	for _, i := range []uint64{0, 1, 4, 5} {
		set, err := free.GetBit(i)
		require.NoError(t, err)
		assert.False(t, set, "block %d should be owned", i)
	}

	owned, n, err := l0.BlockMap(QueryOwned)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	set, err := owned.GetBit(0)
	require.NoError(t, err)
	assert.True(t, set)
	set, err = owned.GetBit(4)
	require.NoError(t, err)
	assert.False(t, set, "head 1's block is not head 0's")
}

func TestBlockMapInvalidQuery(t *testing.T) {
	l0, _ := testRegion(t, 8, 8)
	_, _, err := l0.BlockMap(MapQuery(42))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
