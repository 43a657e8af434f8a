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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔀 SwapState is how far a swap has progressed
type SwapState int

const (
	SwapStart        SwapState = iota // nothing moved
	SwapTempMoved                     // a is parked at the temp path
	SwapTargetAMoved                  // b now sits at a
	SwapDone                          // temp moved to b
)

func (s SwapState) String() string {
	switch s {
	case SwapStart:
		return "start"
	case SwapTempMoved:
		return "temp-moved"
	case SwapTargetAMoved:
		return "target-a-moved"
	case SwapDone:
		return "done"
	default:
		return "unknown"
	}
}

// renameFunc matches os.Rename
type renameFunc func(oldpath, newpath string) error

// Swap exchanges the files at a and b through a uniquely named temp file in
// the directory of a. If a step fails the completed steps are undone in
// reverse order.
func Swap(ctx context.Context, a, b string) error {
	return swapWith(ctx, os.Rename, a, b)
}

// SwapTempPath is the parking path used for a during a swap
func SwapTempPath(a string) string {
	return filepath.Join(filepath.Dir(a), ".swap-"+uuid.NewString()+"-"+filepath.Base(a))
}

func swapWith(ctx context.Context, rename renameFunc, a, b string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := zerolog.Ctx(ctx)
	temp := SwapTempPath(a)
	state := SwapStart

	undo := func(cause error) error {
		rollback := func(from, to string) error {
			if err := rename(from, to); err != nil {
				return errors.Errorf("rollback from %s failed, temp file %s: %w", state, temp, err)
			}
			return nil
		}

		var rbErr error
		switch state {
		case SwapTargetAMoved:
			if err := rollback(a, b); err != nil {
				rbErr = err
				break
			}
			state = SwapTempMoved
			fallthrough
		case SwapTempMoved:
			if err := rollback(temp, a); err != nil {
				rbErr = err
				break
			}
			state = SwapStart
		}

		if rbErr != nil {
			logger.Error().Err(rbErr).Str("temp", temp).Msg("swap rollback failed")
			return errors.Join(cause, rbErr)
		}
		return cause
	}

	steps := []struct {
		from, to string
		next     SwapState
	}{
		{from: a, to: temp, next: SwapTempMoved},
		{from: b, to: a, next: SwapTargetAMoved},
		{from: temp, to: b, next: SwapDone},
	}

	for _, step := range steps {
		if err := rename(step.from, step.to); err != nil {
			return undo(errors.Errorf("swapping %s and %s: moving %s to %s: %w", a, b, step.from, step.to, err))
		}
		state = step.next
	}

	logger.Debug().Str("a", a).Str("b", b).Msg("files swapped")
	return nil
}
