package scanner

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/fenilsonani/safeclean/internal/config"
)

// Item is one reclaimable entry found during a scan
type Item struct {
	Path      string          `json:"path" yaml:"path"`
	Category  config.Category `json:"category" yaml:"category"`
	Size      int64           `json:"size" yaml:"size"`
	ModTime   time.Time       `json:"mod_time" yaml:"mod_time"`
	IsDir     bool            `json:"is_dir" yaml:"is_dir"`
	IsSymlink bool            `json:"is_symlink,omitempty" yaml:"is_symlink,omitempty"`
	Reason    string          `json:"reason" yaml:"reason"` // recommended action
}

// ErrorKind classifies a per-path scan error
type ErrorKind string

const (
	ErrorAccess   ErrorKind = "access"
	ErrorVanished ErrorKind = "vanished"
	ErrorRejected ErrorKind = "rejected" // a scan root refused by the safety rules
)

// PathError records a path the scan could not inspect. Scans never stop
// because of one.
type PathError struct {
	Path string    `json:"path" yaml:"path"`
	Kind ErrorKind `json:"kind" yaml:"kind"`
	Err  error     `json:"-" yaml:"-"`
}

func (e PathError) Error() string {
	if e.Err == nil {
		return string(e.Kind) + ": " + e.Path
	}
	return string(e.Kind) + ": " + e.Path + ": " + e.Err.Error()
}

func (e PathError) Unwrap() error { return e.Err }

// TrashSummary is the aggregate reported for the trash category. The trash
// never contributes items.
type TrashSummary struct {
	Path    string `json:"path" yaml:"path"`
	Size    int64  `json:"size" yaml:"size"`
	Entries int    `json:"entries" yaml:"entries"`
}

// Result is the outcome of one scan. It is owned by the scanner while the
// scan runs and is read-only once sealed.
type Result struct {
	Items      []Item          `json:"items" yaml:"items"`
	TotalSize  int64           `json:"total_size" yaml:"total_size"`
	Scanned    int             `json:"scanned" yaml:"scanned"`
	Skipped    int             `json:"skipped" yaml:"skipped"`
	Errors     []PathError     `json:"errors,omitempty" yaml:"errors,omitempty"`
	Truncated  bool            `json:"truncated" yaml:"truncated"`
	Cancelled  bool            `json:"cancelled" yaml:"cancelled"`
	Trash      *TrashSummary   `json:"trash,omitempty" yaml:"trash,omitempty"`
	Settings   config.Settings `json:"settings" yaml:"settings"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at"`

	index  map[string]int
	sealed bool
}

func newResult(s config.Settings, now time.Time) *Result {
	return &Result{
		Items:     []Item{},
		Settings:  s,
		StartedAt: now,
		index:     make(map[string]int),
	}
}

func (r *Result) add(item Item) {
	r.index[item.Path] = len(r.Items)
	r.Items = append(r.Items, item)
	r.TotalSize += item.Size
}

func (r *Result) has(path string) bool {
	_, ok := r.index[path]
	return ok
}

func (r *Result) seal(now time.Time) {
	r.FinishedAt = now
	r.sealed = true
}

// Sealed reports whether the scan that produced r has finished.
func (r *Result) Sealed() bool { return r.sealed }

// Lookup returns the item recorded for path.
func (r *Result) Lookup(path string) (Item, bool) {
	if r.index == nil {
		for _, it := range r.Items {
			if it.Path == path {
				return it, true
			}
		}
		return Item{}, false
	}
	i, ok := r.index[path]
	if !ok {
		return Item{}, false
	}
	return r.Items[i], true
}

// Paths returns the item paths in discovery order.
func (r *Result) Paths() []string {
	out := make([]string, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Path
	}
	return out
}

// Duration is the wall time the scan took.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SortOrder selects how Sorted orders items
type SortOrder string

const (
	SortDiscovery SortOrder = "discovery"
	SortSize      SortOrder = "size" // largest first
	SortName      SortOrder = "name"
	SortAge       SortOrder = "age" // oldest first
)

// Sorted returns a copy of the items in the requested order. The result
// itself keeps discovery order.
func (r *Result) Sorted(order SortOrder) []Item {
	items := slices.Clone(r.Items)
	switch order {
	case SortSize:
		slices.SortStableFunc(items, func(a, b Item) int { return cmp.Compare(b.Size, a.Size) })
	case SortName:
		slices.SortStableFunc(items, func(a, b Item) int { return strings.Compare(a.Path, b.Path) })
	case SortAge:
		slices.SortStableFunc(items, func(a, b Item) int { return a.ModTime.Compare(b.ModTime) })
	}
	return items
}

// CategoryGroup is the slice of a result belonging to one category
type CategoryGroup struct {
	Category  config.Category
	Items     []Item
	TotalSize int64
}

// GroupByCategory groups items by category, in category display order.
func (r *Result) GroupByCategory() []CategoryGroup {
	byCat := make(map[config.Category]*CategoryGroup)
	for _, it := range r.Items {
		g, ok := byCat[it.Category]
		if !ok {
			g = &CategoryGroup{Category: it.Category}
			byCat[it.Category] = g
		}
		g.Items = append(g.Items, it)
		g.TotalSize += it.Size
	}

	var out []CategoryGroup
	for _, c := range config.AllCategories {
		if g, ok := byCat[c]; ok {
			out = append(out, *g)
		}
	}
	return out
}
