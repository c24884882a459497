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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDebugRegionDetail(t *testing.T) {
	l0, _ := testRegion(t, 4, 16)
	require.NoError(t, l0.ClaimExtent(0, 3))

	// smoke only, output goes to stdout
	DebugRegionDetail(l0.StatePath())
}

func TestDebugRegionDetailBadInput(t *testing.T) {
	DebugRegionDetail(filepath.Join(t.TempDir(), "missing"))

	short := filepath.Join(t.TempDir(), "short")
	require.NoError(t, os.WriteFile(short, []byte{1}, 0o600))
	DebugRegionDetail(short)

	bad := filepath.Join(t.TempDir(), "badheads")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xff, 0, 0}, 0o600))
	DebugRegionDetail(bad)
}
