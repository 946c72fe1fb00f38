package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/security"
)

// cacheEntry is a top-level entry of the caches folder awaiting sizing
type cacheEntry struct {
	path   string
	info   fs.FileInfo
	isLink bool

	size    int64
	scanned int
	errs    []PathError
}

// scanCaches reports each top-level entry of the caches folder as one item.
// Directories are sized in aggregate; sizing runs concurrently but items
// are emitted in listing order.
func (r *run) scanCaches() {
	root := r.locations.Caches
	if !r.acceptRoot(root) {
		return
	}
	r.emit(Event{Kind: EventProgress, Path: root, Scanned: r.res.Scanned})

	entries, err := os.ReadDir(root)
	if err != nil {
		r.recordErr(root, err)
	}

	days := r.settings.OldCacheAgeDays
	var candidates []*cacheEntry
	for _, e := range entries {
		path := filepath.Join(root, e.Name())
		r.res.Scanned++

		if !r.settings.IncludeHidden && isHidden(e.Name()) {
			r.res.Skipped++
			continue
		}
		v := r.classifier.Explain(path, r.settings)
		if !security.Admits(v.Class, r.settings) {
			r.refuse(path, v)
			continue
		}
		info, err := e.Info()
		if err != nil {
			r.recordErr(path, err)
			continue
		}
		if !r.olderThan(info, days) {
			continue
		}
		candidates = append(candidates, &cacheEntry{
			path:   path,
			info:   info,
			isLink: info.Mode()&fs.ModeSymlink != 0,
		})
	}

	g, ctx := errgroup.WithContext(r.ctx)
	g.SetLimit(r.sizeWorkers)
	for _, c := range candidates {
		if !c.info.IsDir() {
			c.size = c.info.Size()
			continue
		}
		g.Go(func() error {
			c.size, c.scanned, c.errs = dirSize(ctx, c.path)
			return nil
		})
	}
	_ = g.Wait()

	reason := fmt.Sprintf("Cache not updated in %d+ days; applications rebuild it on demand", days)
	for _, c := range candidates {
		if r.stopped() {
			return
		}
		r.res.Scanned += c.scanned
		r.res.Errors = append(r.res.Errors, c.errs...)
		if c.size <= 0 {
			continue
		}
		r.offer(Item{
			Path:      c.path,
			Category:  config.CategoryCaches,
			Size:      c.size,
			ModTime:   c.info.ModTime(),
			IsDir:     c.info.IsDir(),
			IsSymlink: c.isLink,
			Reason:    reason,
		})
	}
}

// dirSize sums the sizes of regular files beneath dir without following
// symlinks. Unreadable entries are returned as errors and otherwise ignored.
func dirSize(ctx context.Context, dir string) (int64, int, []PathError) {
	var (
		total   int64
		scanned int
		errs    []PathError
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			kind := ErrorAccess
			if errors.Is(err, fs.ErrNotExist) {
				kind = ErrorVanished
			}
			errs = append(errs, PathError{Path: path, Kind: kind, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := ctx.Err(); err != nil {
				return err
			}
			return nil
		}
		scanned++
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil && ctx.Err() == nil {
		errs = append(errs, PathError{Path: dir, Kind: ErrorAccess, Err: err})
	}
	return total, scanned, errs
}
