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

import "errors"

var (
	// ErrConfig covers fatal attach-time problems: bad head id or head
	// count, zero or misaligned capacity, a missing backing store, or a
	// store whose recorded layout does not match the configuration.
	ErrConfig = errors.New("ledger: invalid configuration")

	// ErrConflict means an extent claim lost a race to another head.
	// The ledger is restored to its pre-call state before this is
	// returned; the caller may retry with a different or smaller extent.
	ErrConflict = errors.New("ledger: extent claim conflict")

	// ErrInvalidInput is returned for out-of-range queries. No side
	// effects.
	ErrInvalidInput = errors.New("ledger: invalid input")

	// ErrAccessDenied means the configured access validation hook
	// rejected the extent before the ledger was touched.
	ErrAccessDenied = errors.New("ledger: access validation rejected the extent")

	// ErrShareMemoryHadNotLeftSpace means /dev/shm cannot hold the
	// shared state of the requested capacity.
	ErrShareMemoryHadNotLeftSpace = errors.New("ledger: share memory had not left space")
)
