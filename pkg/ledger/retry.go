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
	"errors"

	"github.com/cenkalti/backoff/v4"
)

// ClaimWithRetry retries ClaimExtent under the supplied backoff until
// it stops returning ErrConflict or the context ends. The allocator
// itself never retries; this is the retry policy layered above it.
func (l *Ledger) ClaimWithRetry(ctx context.Context, startBlock, count uint64, bo backoff.BackOff) error {
	ctx, span := l.startSpan(ctx, "ledger.ClaimWithRetry")
	defer span.End()

	op := func() error {
		err := l.ClaimExtent(startBlock, count)
		if err != nil && !errors.Is(err, ErrConflict) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}
