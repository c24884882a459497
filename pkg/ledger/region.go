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
	"encoding/binary"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/multihead/ledger-shm/internal/shm"
)

// Layout of the shared state, host-native byte order, identical in
// every attached process:
//
//	head_count   1 byte
//	ld_count     1 byte
//	ld_map       head_count bytes
//	block_count  8 bytes
//	blocks       block_count bytes, one ownership byte per block
//
// Bit h of a block byte means head h owns that block; at most one bit
// is ever set per block.
const (
	headCountOffset = 0
	ldCountOffset   = 1
	ldMapOffset     = 2
)

func layoutSize(heads uint32, blocks uint64) uint64 {
	return 2 + uint64(heads) + 8 + blocks
}

// attached tracks the regions this process currently has mapped,
// keyed by backing path and head id. One attachment per head per
// region per process; distinct heads of one process (as in tests and
// single-process simulations) may attach the same region.
var attached = cmap.New[*Ledger]()

func attachKey(path string, head uint32) string {
	return fmt.Sprintf("%s#%d", path, head)
}

// Ledger is one head's handle onto the shared capacity region. All
// allocator calls go through a handle; the mapping itself is never
// process-global state.
type Ledger struct {
	conf    *Config
	region  *shm.MappedRegion
	fl      *flock.Flock
	creator bool

	// blockCount caches the write-once header field. The mapped bytes
	// holding it can share an aligned CAS word with the first ownership
	// blocks, so the hot path must not re-read them.
	blockCount uint64

	tracer       trace.Tracer
	claimCounter metric.Int64Counter
}

// Create sizes, maps, and zero-initializes the backing store, then
// writes the header. Exactly one head per deployment creates; every
// other head Opens the same store.
func Create(conf *Config, totalCapacity uint64) (*Ledger, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	if totalCapacity == 0 {
		return nil, fmt.Errorf("%w: no capacity to manage", ErrConfig)
	}
	if totalCapacity%conf.BlockSize != 0 {
		return nil, fmt.Errorf("%w: capacity %d is not a multiple of block size %d",
			ErrConfig, totalCapacity, conf.BlockSize)
	}
	blockCount := totalCapacity / conf.BlockSize
	size := layoutSize(conf.Heads, blockCount)
	path := conf.statePath()

	if attached.Has(attachKey(path, conf.HeadID)) {
		return nil, fmt.Errorf("%w: head %d already attached to %s in this process",
			ErrConfig, conf.HeadID, path)
	}
	if !shm.CanCreateOnDevShm(size, path) {
		return nil, fmt.Errorf("%w: path %s, size %d", ErrShareMemoryHadNotLeftSpace, path, size)
	}

	region, err := shm.Map(shm.MapOptions{Path: path, Size: int(size), Create: true})
	if err != nil {
		return nil, fmt.Errorf("create ledger state: %w", err)
	}

	l := newLedger(conf, region)
	l.creator = true
	l.initialize(blockCount)
	attached.Set(attachKey(path, conf.HeadID), l)
	internalLogger.infof("created ledger %s heads:%d blocks:%d discipline:%d",
		path, conf.Heads, blockCount, conf.Discipline)
	return l, nil
}

// Open maps an existing backing store without resetting its contents.
func Open(conf *Config) (*Ledger, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	path := conf.statePath()
	if attached.Has(attachKey(path, conf.HeadID)) {
		return nil, fmt.Errorf("%w: head %d already attached to %s in this process",
			ErrConfig, conf.HeadID, path)
	}
	if !shm.PathExists(path) {
		return nil, fmt.Errorf("%w: ledger state %s does not exist", ErrConfig, path)
	}
	region, err := shm.Map(shm.MapOptions{Path: path})
	if err != nil {
		return nil, fmt.Errorf("open ledger state: %w", err)
	}
	l := newLedger(conf, region)
	if err := l.validateLayout(); err != nil {
		_ = shm.Unmap(region)
		return nil, err
	}
	l.blockCount = l.readBlockCount()
	attached.Set(attachKey(path, conf.HeadID), l)
	internalLogger.infof("opened ledger %s head:%d", path, conf.HeadID)
	return l, nil
}

func newLedger(conf *Config, region *shm.MappedRegion) *Ledger {
	l := &Ledger{conf: conf, region: region}
	if conf.Discipline == DisciplineFlock {
		l.fl = flock.New(conf.lockPath())
	}
	l.initInstrumentation(conf)
	return l
}

// initialize zero-fills the mapping and writes the header. Only the
// creating head calls this; co-heads must observe either all-zero
// state or a fully written header, which the zero-then-write order
// gives on a freshly truncated file.
func (l *Ledger) initialize(blockCount uint64) {
	mem := l.region.Data
	for i := range mem {
		mem[i] = 0
	}
	mem[headCountOffset] = uint8(l.conf.Heads)
	mem[ldCountOffset] = uint8(l.conf.Heads)
	for i := uint32(0); i < l.conf.Heads; i++ {
		mem[ldMapOffset+int(i)] = ldUnassigned
	}
	off := ldMapOffset + int(l.conf.Heads)
	binary.NativeEndian.PutUint64(mem[off:off+8], blockCount)
	l.blockCount = blockCount
}

// readBlockCount reads the mapped block count byte-atomically; plain
// 8-byte reads race with block CAS words when the blocks offset is
// not 4-aligned.
func (l *Ledger) readBlockCount() uint64 {
	off := ldMapOffset + int(l.HeadCount())
	var raw [8]byte
	for i := range raw {
		raw[i] = shm.LoadUint8(&l.region.Data[off+i])
	}
	return binary.NativeEndian.Uint64(raw[:])
}

func (l *Ledger) validateLayout() error {
	mem := l.region.Data
	if uint64(len(mem)) < layoutSize(l.conf.Heads, 0) {
		return fmt.Errorf("%w: state file %s too small for %d heads",
			ErrConfig, l.region.Path, l.conf.Heads)
	}
	heads := uint32(mem[headCountOffset])
	if heads != l.conf.Heads {
		return fmt.Errorf("%w: state has %d heads, config wants %d",
			ErrConfig, heads, l.conf.Heads)
	}
	if uint32(mem[ldCountOffset]) != heads {
		return fmt.Errorf("%w: state has %d lds for %d heads",
			ErrConfig, mem[ldCountOffset], heads)
	}
	if uint64(len(mem)) < layoutSize(heads, l.readBlockCount()) {
		return fmt.Errorf("%w: state file %s smaller than its recorded block count",
			ErrConfig, l.region.Path)
	}
	return nil
}

// Close unmaps the region and detaches it from the process registry.
// The backing store stays; Destroy removes it.
func (l *Ledger) Close() error {
	if l.region == nil {
		return nil
	}
	attached.Remove(attachKey(l.region.Path, l.conf.HeadID))
	err := shm.Unmap(l.region)
	l.region = nil
	return err
}

// Destroy unlinks the backing store's name and its lock file. Nothing
// tracks attachments across processes, so this must only run after
// every head has closed — by convention, from the creating head during
// an explicit teardown.
func Destroy(conf *Config) error {
	if err := os.Remove(conf.statePath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(conf.lockPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Healthy reports whether the handle is still mapped and the mapped
// header is sane.
func (l *Ledger) Healthy() error {
	if l == nil || l.region == nil || l.region.Data == nil {
		return fmt.Errorf("ledger is not mapped")
	}
	return l.validateLayout()
}

// HeadID returns the head identity this handle is bound to.
func (l *Ledger) HeadID() uint32 {
	return l.conf.HeadID
}

// HeadCount returns the cooperating head count recorded at creation.
func (l *Ledger) HeadCount() uint32 {
	return uint32(l.region.Data[headCountOffset])
}

// LDCount returns the logical-device slot count recorded at creation.
func (l *Ledger) LDCount() uint32 {
	return uint32(l.region.Data[ldCountOffset])
}

// BlockCount returns the capacity block count recorded at creation.
func (l *Ledger) BlockCount() uint64 {
	return l.blockCount
}

// StatePath returns the backing file path of this region.
func (l *Ledger) StatePath() string {
	return l.region.Path
}

func (l *Ledger) blocksOffset() int {
	return ldMapOffset + int(l.HeadCount()) + 8
}

func (l *Ledger) blocks() []byte {
	off := l.blocksOffset()
	return l.region.Data[off : off+int(l.BlockCount())]
}

func (l *Ledger) headBit() uint8 {
	return 1 << l.conf.HeadID
}

// lockRegion acquires the advisory region lock under DisciplineFlock
// and returns the release func. Under DisciplineAtomic both are
// no-ops. Mutating sections flush the mapping before unlocking.
func (l *Ledger) lockRegion(mutating bool) (func(), error) {
	if l.fl == nil {
		return func() {}, nil
	}
	lock := l.fl.Lock
	if !mutating {
		lock = l.fl.RLock
	}
	if err := lock(); err != nil {
		return nil, fmt.Errorf("acquire region lock %s: %w", l.fl.Path(), err)
	}
	return func() {
		if mutating {
			if err := shm.Sync(l.region); err != nil {
				internalLogger.warnf("msync %s: %v", l.region.Path, err)
			}
		}
		if err := l.fl.Unlock(); err != nil {
			internalLogger.warnf("release region lock %s: %v", l.fl.Path(), err)
		}
	}, nil
}
