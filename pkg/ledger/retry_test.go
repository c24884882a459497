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
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimWithRetryAfterRelease(t *testing.T) {
	l0, open := testRegion(t, 8, 8)
	l1 := open(1)

	require.NoError(t, l0.ClaimExtent(0, 4))

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = l0.ReleaseExtent(0, 4)
	}()

	bo := backoff.NewConstantBackOff(10 * time.Millisecond)
	err := l1.ClaimWithRetry(context.Background(), 0, 4, bo)
	require.NoError(t, err)
	assert.True(t, l1.ExtentOwnedBy(0, 4))
}

func TestClaimWithRetryPermanentError(t *testing.T) {
	l0, _ := testRegion(t, 8, 4)

	// out-of-range input is not retried
	start := time.Now()
	err := l0.ClaimWithRetry(context.Background(), 10, 1,
		backoff.NewConstantBackOff(time.Second))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClaimWithRetryContextCancel(t *testing.T) {
	l0, open := testRegion(t, 8, 4)
	l1 := open(1)

	require.NoError(t, l0.ClaimExtent(0, 4))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := l1.ClaimWithRetry(ctx, 0, 4, backoff.NewConstantBackOff(10*time.Millisecond))
	assert.Error(t, err)
	assert.False(t, l1.ExtentOwnedBy(0, 4))
}
