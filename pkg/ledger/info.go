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

// ldUnassigned marks a logical-device slot no head has registered.
const ldUnassigned = 0xff

// Info is the answer to a describe-multi-head-topology command.
type Info struct {
	LDCount   uint32
	HeadCount uint32
	StartLD   uint32
	LDMap     []uint8
}

// RegisterHead records this head's ownership of its logical-device
// slot in the shared map. Every head owns its own slot by convention,
// so the call is idempotent.
func (l *Ledger) RegisterHead() error {
	if l.conf.HeadID >= l.HeadCount() {
		return fmt.Errorf("%w: head id %d out of range, state has %d heads",
			ErrConfig, l.conf.HeadID, l.HeadCount())
	}
	l.region.Data[ldMapOffset+int(l.conf.HeadID)] = uint8(l.conf.HeadID)
	return nil
}

// Registered reports whether this head's logical-device slot is
// recorded in the shared map.
func (l *Ledger) Registered() bool {
	if l.conf.HeadID >= l.HeadCount() {
		return false
	}
	return l.region.Data[ldMapOffset+int(l.conf.HeadID)] != ldUnassigned
}

// Info returns up to maxEntries consecutive ld_map entries starting at
// startLD, clipped to the ld count.
func (l *Ledger) Info(startLD, maxEntries uint32) (*Info, error) {
	ldCount := l.LDCount()
	if startLD >= ldCount {
		return nil, fmt.Errorf("%w: start ld %d out of range, region has %d lds",
			ErrInvalidInput, startLD, ldCount)
	}
	out := &Info{
		LDCount:   ldCount,
		HeadCount: l.HeadCount(),
		StartLD:   startLD,
	}
	for i := uint32(0); i < maxEntries && startLD+i < ldCount; i++ {
		out.LDMap = append(out.LDMap, l.region.Data[ldMapOffset+int(startLD+i)])
	}
	return out, nil
}
