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

// Package archive packs a folder into an uncompressed zip next to it.
package archive

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Path returns the archive path Zip writes for folder
func Path(folder string) string {
	folder = filepath.Clean(folder)
	return filepath.Join(filepath.Dir(folder), filepath.Base(folder)+".zip")
}

// 📦 Zip writes every file and directory under folder into <folder>.zip using
// the Store method. Entry names are slash separated and relative to folder;
// directories get a trailing slash and the root itself is not emitted. The
// archive only appears at its final path once it is complete.
func Zip(ctx context.Context, folder string) (string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return "", errors.Errorf("stat %s: %w", folder, err)
	}
	if !info.IsDir() {
		return "", errors.Errorf("archive source %s is not a directory", folder)
	}

	dest := Path(folder)
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return "", errors.Errorf("creating temp archive: %w", err)
	}
	tmpPath := tmp.Name()

	entries, err := write(ctx, tmp, folder)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", errors.Errorf("closing temp archive: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", errors.Errorf("renaming archive into place: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("folder", folder).
		Str("archive", dest).
		Int("entries", entries).
		Msg("archive written")
	return dest, nil
}

func write(ctx context.Context, out io.Writer, folder string) (int, error) {
	zw := zip.NewWriter(out)
	entries := 0

	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Errorf("walking %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return errors.Errorf("relative path of %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return errors.Errorf("stat %s: %w", path, err)
		}

		switch {
		case d.IsDir():
			hdr := &zip.FileHeader{Name: name + "/", Method: zip.Store, Modified: info.ModTime()}
			hdr.SetMode(info.Mode())
			if _, err := zw.CreateHeader(hdr); err != nil {
				return errors.Errorf("adding directory %s: %w", name, err)
			}
		case d.Type().IsRegular():
			hdr := &zip.FileHeader{Name: name, Method: zip.Store, Modified: info.ModTime()}
			hdr.SetMode(info.Mode())
			w, err := zw.CreateHeader(hdr)
			if err != nil {
				return errors.Errorf("adding file %s: %w", name, err)
			}
			if err := copyInto(w, path); err != nil {
				return errors.Errorf("adding file %s: %w", name, err)
			}
		default:
			return nil
		}
		entries++
		return nil
	})
	if err != nil {
		zw.Close()
		return 0, err
	}

	if err := zw.Close(); err != nil {
		return 0, errors.Errorf("finishing archive: %w", err)
	}
	return entries, nil
}

func copyInto(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
