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

// Package prefs persists user preferences as a small JSON document.
package prefs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/walteh/endecode/pkg/fsutil"
	"gitlab.com/tozd/go/errors"
)

const (
	// AppDir is the folder created under the user config directory
	AppDir = "endecode"
	// FileName is the preferences document inside AppDir
	FileName = "preferences.json"

	lockRetry = 50 * time.Millisecond
)

// Keys accepted by Get and Set
const (
	KeyThemeMode        = "theme_mode"
	KeyAutoClearConsole = "auto_clear_console"
	KeyLastSelectedPath = "last_selected_path"
)

// ErrUnknownKey is returned for keys other than the Key constants
var ErrUnknownKey = errors.Base("unknown preference key")

// 🎛️ Preferences holds optional user settings. Unset fields are omitted on disk.
type Preferences struct {
	ThemeMode        *string `json:"theme_mode,omitempty"`
	AutoClearConsole *bool   `json:"auto_clear_console,omitempty"`
	LastSelectedPath *string `json:"last_selected_path,omitempty"`
}

// Keys returns every preference key, sorted
func Keys() []string {
	keys := []string{KeyThemeMode, KeyAutoClearConsole, KeyLastSelectedPath}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key as text and whether it is set
func (p Preferences) Get(key string) (string, bool, error) {
	switch key {
	case KeyThemeMode:
		if p.ThemeMode == nil {
			return "", false, nil
		}
		return *p.ThemeMode, true, nil
	case KeyAutoClearConsole:
		if p.AutoClearConsole == nil {
			return "", false, nil
		}
		return strconv.FormatBool(*p.AutoClearConsole), true, nil
	case KeyLastSelectedPath:
		if p.LastSelectedPath == nil {
			return "", false, nil
		}
		return *p.LastSelectedPath, true, nil
	}
	return "", false, errors.Errorf("%w: %q", ErrUnknownKey, key)
}

// Set parses value for key. An empty value clears the key.
func (p *Preferences) Set(key, value string) error {
	switch key {
	case KeyThemeMode:
		p.ThemeMode = optional(value)
	case KeyLastSelectedPath:
		p.LastSelectedPath = optional(value)
	case KeyAutoClearConsole:
		if value == "" {
			p.AutoClearConsole = nil
			return nil
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Errorf("%s: %w", key, err)
		}
		p.AutoClearConsole = &b
	default:
		return errors.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// 💾 Store reads and writes preferences in one directory
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultStore returns a store in <user config dir>/endecode
func DefaultStore() (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, errors.Errorf("locating user config dir: %w", err)
	}
	return NewStore(filepath.Join(base, AppDir)), nil
}

// Path is the preferences file location
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

func (s *Store) lockPath() string {
	return s.Path() + ".lock"
}

// 📖 Load returns the saved preferences, or empty ones when none were saved
func (s *Store) Load(ctx context.Context) (Preferences, error) {
	var p Preferences

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		zerolog.Ctx(ctx).Debug().Str("path", s.Path()).Msg("no preferences saved yet")
		return p, nil
	}
	if err != nil {
		return p, errors.Errorf("reading preferences: %w", err)
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return p, errors.Errorf("parsing preferences %s: %w", s.Path(), err)
	}
	return p, nil
}

// 💾 Save writes p under an exclusive file lock and swaps it into place
func (s *Store) Save(ctx context.Context, p Preferences) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Errorf("creating %s: %w", s.dir, err)
	}

	lock := flock.New(s.lockPath())
	ok, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return errors.Errorf("locking preferences: %w", err)
	}
	if !ok {
		return errors.Errorf("preferences are locked by another process")
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.Errorf("encoding preferences: %w", err)
	}

	if err := fsutil.WriteFileAtomic(s.Path(), data, 0644); err != nil {
		return errors.Errorf("writing preferences: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", s.Path()).Msg("preferences saved")
	return nil
}

// Update loads, applies fn and saves in one call
func (s *Store) Update(ctx context.Context, fn func(*Preferences) error) (Preferences, error) {
	p, err := s.Load(ctx)
	if err != nil {
		return p, err
	}
	if err := fn(&p); err != nil {
		return p, err
	}
	return p, s.Save(ctx, p)
}
