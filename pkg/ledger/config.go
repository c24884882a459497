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

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Discipline selects the cross-process synchronization strategy for
// one region. Every head attached to a region must use the same
// discipline; mixing them reintroduces the races each one prevents.
type Discipline int

const (
	// DisciplineAtomic uses lock-free per-block compare-and-swap with
	// rollback on conflict. Claims never block; a loser's whole extent
	// is rolled back and ErrConflict returned.
	DisciplineAtomic Discipline = iota

	// DisciplineFlock serializes every read-modify-write under an
	// advisory file lock kept next to the backing store. Claims
	// pre-scan the range under the lock, so no partial mutation is
	// ever observable and no rollback happens. Calls may block for
	// the duration of another head's critical section.
	DisciplineFlock
)

const (
	// DefaultBlockSize is the fixed capacity block granularity, 2MiB.
	DefaultBlockSize = 2 << 20

	// MaxHeads is bounded by the ownership byte: one bit per head.
	MaxHeads = 8
)

// ValidateAccessFunc can veto an extent claim before the ledger is
// touched. Deployments substitute device-specific policies here; nil
// permits everything.
type ValidateAccessFunc func(head uint32, startBlock, blockCount uint64) bool

// Config describes one head's attachment to a shared capacity region.
type Config struct {
	// HeadID identifies this attachment, in [0, Heads).
	HeadID uint32
	// Heads is the cooperating head count, fixed at region creation.
	Heads uint32
	// BlockSize is the capacity block granularity in bytes.
	BlockSize uint64
	// PathPrefix locates the backing file; the full path is the prefix
	// plus the device identifier.
	PathPrefix string
	// DeviceID is the stable 64-bit identifier the backing file name
	// is derived from.
	DeviceID uint64
	// Discipline picks the synchronization strategy, identical across
	// all heads of one region.
	Discipline Discipline
	// ValidateAccess, when non-nil, is consulted before every claim.
	ValidateAccess ValidateAccessFunc
	// Meter and Tracer, when non-nil, instrument allocator calls.
	Meter  metric.Meter
	Tracer trace.Tracer
}

// DefaultConfig returns the default ledger configuration.
func DefaultConfig() *Config {
	return &Config{
		Heads:      MaxHeads,
		BlockSize:  DefaultBlockSize,
		PathPrefix: "/dev/shm/ledger-shm",
	}
}

func (c *Config) statePath() string {
	return fmt.Sprintf("%s.%016x", c.PathPrefix, c.DeviceID)
}

func (c *Config) lockPath() string {
	return c.statePath() + ".lock"
}

func (c *Config) validate() error {
	if c.Heads == 0 || c.Heads > MaxHeads {
		return fmt.Errorf("%w: head count must be 1-%d, got %d", ErrConfig, MaxHeads, c.Heads)
	}
	if c.HeadID >= c.Heads {
		return fmt.Errorf("%w: head id must be 0-%d, got %d", ErrConfig, c.Heads-1, c.HeadID)
	}
	if c.BlockSize == 0 {
		return fmt.Errorf("%w: block size must be non-zero", ErrConfig)
	}
	if c.Discipline != DisciplineAtomic && c.Discipline != DisciplineFlock {
		return fmt.Errorf("%w: unknown discipline %d", ErrConfig, c.Discipline)
	}
	if c.PathPrefix == "" {
		return fmt.Errorf("%w: empty path prefix", ErrConfig)
	}
	return nil
}
