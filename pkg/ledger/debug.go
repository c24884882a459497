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

	"github.com/valyala/bytebufferpool"
)

// DebugRegionDetail prints the header and per-head ownership summary
// of a region file without attaching to it. Operator tooling only.
func DebugRegionDetail(path string) {
	mem, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	if len(mem) < 2 {
		fmt.Printf("path:%s too small (%d bytes)\n", path, len(mem))
		return
	}
	heads := int(mem[headCountOffset])
	lds := int(mem[ldCountOffset])
	if heads == 0 || heads > MaxHeads || len(mem) < 2+heads+8 {
		fmt.Printf("path:%s malformed header heads:%d size:%d\n", path, heads, len(mem))
		return
	}
	blockCount := binary.NativeEndian.Uint64(mem[2+heads:])
	blocks := mem[2+heads+8:]
	if uint64(len(blocks)) > blockCount {
		blocks = blocks[:blockCount]
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fmt.Fprintf(buf, "path:%s heads:%d lds:%d blocks:%d\n", path, heads, lds, blockCount)
	fmt.Fprintf(buf, "ldmap:%v\n", mem[ldMapOffset:ldMapOffset+heads])

	var owned [MaxHeads]uint64
	var free uint64
	for _, b := range blocks {
		if b == 0 {
			free++
			continue
		}
		for h := 0; h < MaxHeads; h++ {
			if b&(1<<h) != 0 {
				owned[h]++
			}
		}
	}
	fmt.Fprintf(buf, "free:%d\n", free)
	for h := 0; h < heads; h++ {
		fmt.Fprintf(buf, "head %d owns %d blocks\n", h, owned[h])
	}
	fmt.Print(buf.String())
}
