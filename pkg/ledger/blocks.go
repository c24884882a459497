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

import "github.com/multihead/ledger-shm/internal/shm"

// Per-block primitives over the mapped ownership bytes.

func casBlock(b *uint8, old, new uint8) bool {
	return shm.CompareAndSwapUint8(b, old, new)
}

func clearBlockBit(b *uint8, bit uint8) {
	shm.AndUint8(b, ^bit)
}

func loadBlock(b *uint8) uint8 {
	return shm.LoadUint8(b)
}
