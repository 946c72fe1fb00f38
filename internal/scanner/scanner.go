package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/platform"
	"github.com/fenilsonani/safeclean/internal/security"
)

const day = 24 * time.Hour

// Scanner finds reclaimable entries under the platform locations. A
// Scanner holds a private snapshot of its settings and can run any number
// of sequential scans.
type Scanner struct {
	settings    config.Settings
	classifier  *security.Classifier
	locations   platform.Locations
	log         *slog.Logger
	now         func() time.Time
	sizeWorkers int
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLogger sets the operational logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used for age checks
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Scanner. Invalid settings are reported here, before any
// filesystem access.
func New(settings config.Settings, classifier *security.Classifier, locations platform.Locations, opts ...Option) (*Scanner, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if classifier == nil {
		return nil, errors.New("scanner: classifier is required")
	}

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	s := &Scanner{
		settings:    settings.Snapshot(),
		classifier:  classifier,
		locations:   locations,
		log:         slog.New(slog.DiscardHandler),
		now:         time.Now,
		sizeWorkers: workers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Settings returns a copy of the settings this scanner runs with
func (s *Scanner) Settings() config.Settings {
	return s.settings.Snapshot()
}

// Scan runs one scan to completion or cancellation and returns the sealed
// result. emit, when non-nil, is called on the scanning goroutine for every
// item found and for progress at each directory.
func (s *Scanner) Scan(ctx context.Context, emit func(Event)) *Result {
	if emit == nil {
		emit = func(Event) {}
	}

	r := &run{
		Scanner: s,
		ctx:     ctx,
		emit:    emit,
		start:   s.now(),
		visited: make(map[fileID]bool),
	}
	r.res = newResult(s.settings.Snapshot(), r.start)

	cats := s.settings.Categories
	s.log.Info("scan started",
		"categories", cats.String(),
		"dry_run", s.settings.DryRun,
		"max_results", s.settings.MaxResults,
	)

	if cats.Has(config.CategoryLargeFiles) || cats.Has(config.CategoryOldDownloads) {
		r.scanDownloads()
	}
	if cats.Has(config.CategoryLargeFiles) {
		r.scanExtraRoots()
	}
	if cats.Has(config.CategoryCaches) {
		r.scanCaches()
	}
	if cats.Has(config.CategoryLogs) {
		r.scanLogs()
	}
	if cats.Has(config.CategoryTrashReport) {
		r.reportTrash()
	}

	if ctx.Err() != nil {
		r.res.Cancelled = true
	}
	r.res.seal(s.now())

	s.log.Info("scan finished",
		"items", len(r.res.Items),
		"total_size", r.res.TotalSize,
		"scanned", r.res.Scanned,
		"skipped", r.res.Skipped,
		"errors", len(r.res.Errors),
		"truncated", r.res.Truncated,
		"cancelled", r.res.Cancelled,
		"duration", r.res.Duration().String(),
	)
	return r.res
}

// matcher decides whether a non-directory entry qualifies and under which
// category.
type matcher func(info fs.FileInfo) (config.Category, string, bool)

// run holds the state of a single scan
type run struct {
	*Scanner
	ctx     context.Context
	emit    func(Event)
	res     *Result
	start   time.Time
	visited map[fileID]bool
}

func (r *run) stopped() bool {
	return r.res.Truncated || r.ctx.Err() != nil
}

func (r *run) olderThan(info fs.FileInfo, days int) bool {
	return r.start.Sub(info.ModTime()) >= time.Duration(days)*day
}

// acceptRoot checks that a scan root exists and may be walked at all.
func (r *run) acceptRoot(root string) bool {
	if root == "" {
		return false
	}
	info, err := os.Lstat(root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.recordErr(root, err)
		}
		return false
	}
	if info.Mode()&fs.ModeSymlink != 0 && !r.settings.FollowSymlinks {
		r.log.Debug("scan root refused", "path", root, "reason", "symlink")
		r.res.Errors = append(r.res.Errors, PathError{
			Path: root,
			Kind: ErrorRejected,
			Err:  errors.New("root is a symlink and symlinks are not followed"),
		})
		return false
	}

	v := r.classifier.Explain(root, r.settings)
	if v.Inside() && !security.Admits(v.Class, r.settings) {
		r.log.Debug("scan root refused", "path", root, "class", v.Class.String(), "rule", v.Rule)
		r.res.Errors = append(r.res.Errors, PathError{
			Path: root,
			Kind: ErrorRejected,
			Err:  fmt.Errorf("%s by rule %s", v.Class, v.Rule),
		})
		return false
	}
	return true
}

// walk visits root recursively in directory-listing order.
func (r *run) walk(root string, match matcher) {
	if !r.acceptRoot(root) {
		return
	}
	r.walkDir(root, match)
}

func (r *run) walkDir(dir string, match matcher) {
	if r.stopped() {
		return
	}

	if r.settings.FollowSymlinks {
		if id, ok := identityOf(dir); ok {
			if r.visited[id] {
				r.log.Debug("symlink loop skipped", "path", dir)
				return
			}
			r.visited[id] = true
		}
	}

	r.emit(Event{Kind: EventProgress, Path: dir, Scanned: r.res.Scanned})

	entries, err := os.ReadDir(dir)
	if err != nil {
		r.recordErr(dir, err)
	}

	for _, e := range entries {
		if r.stopped() {
			return
		}

		path := filepath.Join(dir, e.Name())
		r.res.Scanned++

		if !r.settings.IncludeHidden && isHidden(e.Name()) {
			r.res.Skipped++
			continue
		}

		v := r.classifier.Explain(path, r.settings)
		admitted := security.Admits(v.Class, r.settings)
		if !admitted && v.Inside() {
			r.refuse(path, v)
			continue
		}

		info, err := e.Info()
		if err != nil {
			r.recordErr(path, err)
			continue
		}

		isLink := info.Mode()&fs.ModeSymlink != 0
		if isLink && r.settings.FollowSymlinks {
			target, err := os.Stat(path)
			if err == nil {
				info = target
			}
		} else if isLink {
			// the link itself is the entry; its target is never visited
			if admitted {
				r.consider(path, info, true, match)
			} else {
				r.res.Skipped++
			}
			continue
		}

		if info.IsDir() {
			r.walkDir(path, match)
			continue
		}
		if !admitted {
			r.refuse(path, v)
			continue
		}
		if info.Mode().IsRegular() || isLink {
			r.consider(path, info, isLink, match)
		}
	}
}

func (r *run) consider(path string, info fs.FileInfo, isLink bool, match matcher) {
	cat, reason, ok := match(info)
	if !ok {
		return
	}
	r.offer(Item{
		Path:      path,
		Category:  cat,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		IsDir:     info.IsDir(),
		IsSymlink: isLink,
		Reason:    reason,
	})
}

// offer adds an item unless the path is already recorded. Once MaxResults
// items are held, the next qualifying item marks the result truncated and
// the scan winds down.
func (r *run) offer(item Item) {
	if r.res.has(item.Path) {
		return
	}
	if len(r.res.Items) >= r.settings.MaxResults {
		r.res.Truncated = true
		return
	}
	r.res.add(item)
	r.emit(Event{Kind: EventItem, Item: item, Scanned: r.res.Scanned})
}

func (r *run) refuse(path string, v security.Verdict) {
	r.res.Skipped++
	if v.Class == security.Blocked {
		r.log.Debug("blocked path skipped", "path", path, "rule", v.Rule)
	}
}

func (r *run) recordErr(path string, err error) {
	kind := ErrorAccess
	if errors.Is(err, fs.ErrNotExist) {
		kind = ErrorVanished
	}
	r.log.Debug("scan error", "path", path, "kind", string(kind), "error", err)
	r.res.Errors = append(r.res.Errors, PathError{Path: path, Kind: kind, Err: err})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
