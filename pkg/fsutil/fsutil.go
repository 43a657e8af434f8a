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

// Package fsutil holds the small filesystem primitives the rest of endecode
// builds on: tail reads, atomic rewrites and recursive copies.
package fsutil

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📖 ReadTail returns up to n trailing bytes of the file at path
func ReadTail(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Errorf("stat %s: %w", path, err)
	}
	size := info.Size()
	if size <= 0 {
		return nil, nil
	}
	readLen := int64(n)
	if size < readLen {
		readLen = size
	}

	buf := make([]byte, readLen)
	if _, err := f.ReadAt(buf, size-readLen); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("reading tail of %s: %w", path, err)
	}
	return buf, nil
}

// ➕ Append writes data to the end of an existing file
func Append(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return errors.Errorf("opening %s for append: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Errorf("appending to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// 💾 WriteFileAtomic replaces path with content through a sibling temp file so
// the original stays intact until the new bytes are fully written.
func WriteFileAtomic(path string, content []byte, mode fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { os.Remove(tmpPath) }

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		cleanup()
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return errors.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		cleanup()
		return errors.Errorf("setting mode on temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return errors.Errorf("renaming temp file to %s: %w", path, err)
	}
	return nil
}

// 📦 CopyTree copies the directory src to dst, creating dst and overwriting
// files already there. Symlinks and other special files are skipped.
func CopyTree(ctx context.Context, src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Errorf("stat %s: %w", src, err)
	}
	if !info.IsDir() {
		return errors.Errorf("copy source %s is not a directory", src)
	}

	logger := zerolog.Ctx(ctx)
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Errorf("walking %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Errorf("relative path of %s: %w", path, err)
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			di, err := d.Info()
			if err != nil {
				return errors.Errorf("stat %s: %w", path, err)
			}
			if err := os.MkdirAll(target, di.Mode().Perm()|0700); err != nil {
				return errors.Errorf("creating directory %s: %w", target, err)
			}
			return nil
		case d.Type().IsRegular():
			fi, err := d.Info()
			if err != nil {
				return errors.Errorf("stat %s: %w", path, err)
			}
			if err := CopyFile(path, target, fi.Mode().Perm()); err != nil {
				return errors.Errorf("copying %s: %w", rel, err)
			}
			return nil
		default:
			logger.Debug().Str("path", path).Msg("skipping non-regular file")
			return nil
		}
	})
}

// CopyFile copies a single file, truncating dst if it exists
func CopyFile(src, dst string, mode fs.FileMode) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	destination, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return errors.Errorf("copying file content: %w", err)
	}
	if err := destination.Close(); err != nil {
		return errors.Errorf("closing destination file: %w", err)
	}
	return nil
}
