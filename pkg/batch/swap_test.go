// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

var errInjected = errors.Base("injected rename failure")

// failingRename fails the listed 1-based calls and renames for real otherwise
func failingRename(failOn ...int) renameFunc {
	calls := 0
	return func(oldpath, newpath string) error {
		calls++
		for _, n := range failOn {
			if calls == n {
				return errInjected
			}
		}
		return os.Rename(oldpath, newpath)
	}
}

func swapPair(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	a := filepath.Join(dir, "05.png")
	b := filepath.Join(dir, "15.png")
	require.NoError(t, os.WriteFile(a, []byte("A"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("B"), 0644))
	return dir, a, b
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSwap(t *testing.T) {
	dir, a, b := swapPair(t)

	require.NoError(t, Swap(testContext(t), a, b))

	assert.Equal(t, "B", string(readFile(t, a)))
	assert.Equal(t, "A", string(readFile(t, b)))
	assert.Equal(t, []string{"05.png", "15.png"}, dirNames(t, dir))
}

func TestSwapRollback(t *testing.T) {
	tests := []struct {
		name   string
		failOn []int
	}{
		{name: "first_move_fails", failOn: []int{1}},
		{name: "second_move_fails", failOn: []int{2}},
		{name: "third_move_fails", failOn: []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, a, b := swapPair(t)

			err := swapWith(testContext(t), failingRename(tt.failOn...), a, b)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errInjected))
			assert.Contains(t, err.Error(), "swapping")

			assert.Equal(t, "A", string(readFile(t, a)), "a should be restored")
			assert.Equal(t, "B", string(readFile(t, b)), "b should be restored")
			assert.Equal(t, []string{"05.png", "15.png"}, dirNames(t, dir), "temp file should be gone")
		})
	}
}

func TestSwapRollbackFailure(t *testing.T) {
	dir, a, b := swapPair(t)

	// step two fails, then the rollback of step one fails too
	err := swapWith(testContext(t), failingRename(2, 3), a, b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errInjected))
	assert.Contains(t, err.Error(), "rollback")

	names := dirNames(t, dir)
	require.Len(t, names, 2)
	var temp string
	for _, n := range names {
		if strings.HasPrefix(n, ".swap-") {
			temp = n
		}
	}
	require.NotEmpty(t, temp, "a should be parked at the temp path")
	assert.True(t, strings.HasSuffix(temp, "-05.png"))
	assert.Contains(t, err.Error(), temp, "error should name the temp file")
	assert.Equal(t, "A", string(readFile(t, filepath.Join(dir, temp))))
	assert.Equal(t, "B", string(readFile(t, b)))
}

func TestSwapCancelled(t *testing.T) {
	_, a, b := swapPair(t)
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	require.ErrorIs(t, Swap(ctx, a, b), context.Canceled)
	assert.Equal(t, "A", string(readFile(t, a)))
}

func TestSwapTempPath(t *testing.T) {
	p := filepath.Join("dir", "05.png")
	first, second := SwapTempPath(p), SwapTempPath(p)

	assert.NotEqual(t, first, second, "temp paths should be unique")
	assert.Equal(t, "dir", filepath.Dir(first))
	assert.True(t, strings.HasPrefix(filepath.Base(first), ".swap-"))
	assert.True(t, strings.HasSuffix(first, "-05.png"))
}

func TestSwapStateString(t *testing.T) {
	assert.Equal(t, "start", SwapStart.String())
	assert.Equal(t, "temp-moved", SwapTempMoved.String())
	assert.Equal(t, "target-a-moved", SwapTargetAMoved.String())
	assert.Equal(t, "done", SwapDone.String())
	assert.Equal(t, "unknown", SwapState(9).String())
}
