package trash

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ErrCrossDevice is returned when the trash is on another filesystem. The
// fallback never copies and erases.
var ErrCrossDevice = errors.New("trash is on a different filesystem")

// Dir is a trash directory the tool manages itself. When Info is set, a
// freedesktop .trashinfo record is written for every entry so desktop
// environments can restore it.
type Dir struct {
	Files string
	Info  string
	Now   func() time.Time
}

// Trash renames path into the trash directory under a collision-free name.
func (d Dir) Trash(ctx context.Context, path string) (string, error) {
	if d.Files == "" {
		return "", ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.Files, 0700); err != nil {
		return "", fmt.Errorf("create trash: %w", err)
	}
	if d.Info != "" {
		if err := os.MkdirAll(d.Info, 0700); err != nil {
			return "", fmt.Errorf("create trash info: %w", err)
		}
	}

	name, infoPath, err := d.reserve(path)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(d.Files, name)

	if err := os.Rename(path, dest); err != nil {
		if infoPath != "" {
			os.Remove(infoPath)
		}
		if errors.Is(err, syscall.EXDEV) {
			return "", fmt.Errorf("%s: %w", path, ErrCrossDevice)
		}
		return "", err
	}
	return dest, nil
}

// reserve picks a free name. With an info directory the .trashinfo file is
// created exclusively first so concurrent writers cannot claim the same name.
func (d Dir) reserve(path string) (string, string, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem, ext = base, ""
	}

	for i := 0; i < 10000; i++ {
		name := base
		if i > 0 {
			name = stem + "_" + strconv.Itoa(i) + ext
		}
		if _, err := os.Lstat(filepath.Join(d.Files, name)); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", "", err
		}
		if d.Info == "" {
			return name, "", nil
		}

		infoPath := filepath.Join(d.Info, name+".trashinfo")
		f, err := os.OpenFile(infoPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", err
		}
		_, werr := f.WriteString(d.trashInfo(path))
		cerr := f.Close()
		if err := errors.Join(werr, cerr); err != nil {
			os.Remove(infoPath)
			return "", "", err
		}
		return name, infoPath, nil
	}
	return "", "", fmt.Errorf("no free name in trash for %s", base)
}

func (d Dir) trashInfo(path string) string {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	u := url.URL{Path: path}
	return fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		u.EscapedPath(), now().Format("2006-01-02T15:04:05"))
}

// Empty permanently removes every entry of the trash directory.
func (d Dir) Empty(ctx context.Context) error {
	if d.Files == "" {
		return ErrUnavailable
	}
	var errs []error
	for _, dir := range []string{d.Files, d.Info} {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
