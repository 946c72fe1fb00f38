package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/testutil"
)

func newScanner(t *testing.T, f *testutil.TestFixture, s config.Settings) *Scanner {
	t.Helper()
	sc, err := New(s, f.Classifier(), f.Locations())
	require.NoError(t, err)
	return sc
}

func scan(t *testing.T, f *testutil.TestFixture, s config.Settings) *Result {
	t.Helper()
	return newScanner(t, f, s).Scan(context.Background(), nil)
}

// =============================================================================
// Category Tests
// =============================================================================

func TestScanCategories(t *testing.T) {
	f := testutil.NewFixture(t)

	big := f.CreateSizedFile(filepath.Join(f.Downloads, "big.iso"), 2048, testutil.Days(1))
	old := f.CreateSizedFile(filepath.Join(f.Downloads, "old.zip"), 10, testutil.Days(100))
	both := f.CreateSizedFile(filepath.Join(f.Downloads, "nested", "both.bin"), 4096, testutil.Days(200))
	f.CreateSizedFile(filepath.Join(f.Downloads, "fresh.txt"), 10, testutil.Days(1))

	f.CreateSizedFile(filepath.Join(f.Caches, "com.example.stale", "a.db"), 100, testutil.Days(1))
	f.CreateSizedFile(filepath.Join(f.Caches, "com.example.stale", "sub", "b.db"), 200, testutil.Days(1))
	stale := f.CreateDirWithAge(filepath.Join(f.Caches, "com.example.stale"), testutil.Days(40))
	f.CreateSizedFile(filepath.Join(f.Caches, "com.example.fresh", "c.db"), 100, 0)
	f.CreateDirWithAge(filepath.Join(f.Caches, "empty"), testutil.Days(40))

	oldLog := f.CreateSizedFile(filepath.Join(f.Logs, "app", "old.log"), 50, testutil.Days(40))
	f.CreateSizedFile(filepath.Join(f.Logs, "app", "empty.log"), 0, testutil.Days(40))
	f.CreateSizedFile(filepath.Join(f.Logs, "new.log"), 50, testutil.Days(1))

	f.CreateSizedFile(filepath.Join(f.Trash, "one"), 30, 0)
	f.CreateSizedFile(filepath.Join(f.Trash, "two", "inner"), 70, 0)

	res := scan(t, f, f.Settings())

	require.True(t, res.Sealed())
	assert.False(t, res.Truncated)
	assert.False(t, res.Cancelled)
	assert.Len(t, res.Items, 5)

	want := map[string]config.Category{
		big:    config.CategoryLargeFiles,
		old:    config.CategoryOldDownloads,
		both:   config.CategoryLargeFiles,
		stale:  config.CategoryCaches,
		oldLog: config.CategoryLogs,
	}
	for path, cat := range want {
		item, ok := res.Lookup(path)
		if assert.True(t, ok, "missing %s", path) {
			assert.Equal(t, cat, item.Category, path)
			assert.NotEmpty(t, item.Reason)
		}
	}

	cache, _ := res.Lookup(stale)
	assert.Equal(t, int64(300), cache.Size)
	assert.True(t, cache.IsDir)

	require.NotNil(t, res.Trash)
	assert.Equal(t, 2, res.Trash.Entries)
	assert.Equal(t, int64(100), res.Trash.Size)
	for _, it := range res.Items {
		assert.NotContains(t, it.Path, f.Trash, "trash contents are never items")
	}

	assert.Equal(t, int64(2048+10+4096+300+50), res.TotalSize)
	assert.GreaterOrEqual(t, res.Duration(), time.Duration(0))
}

func TestLargeFileThresholdIsInclusive(t *testing.T) {
	f := testutil.NewFixture(t)
	exact := f.CreateSizedFile(filepath.Join(f.Downloads, "exact.bin"), 1024, 0)
	under := f.CreateSizedFile(filepath.Join(f.Downloads, "under.bin"), 1023, 0)

	s := f.Settings()
	s.Categories = config.NewCategorySet(config.CategoryLargeFiles)
	res := scan(t, f, s)

	_, ok := res.Lookup(exact)
	assert.True(t, ok, "file of exactly the threshold qualifies")
	_, ok = res.Lookup(under)
	assert.False(t, ok)
}

func TestCategoryFilter(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile(filepath.Join(f.Downloads, "big.iso"), 4096, testutil.Days(100))
	logFile := f.CreateSizedFile(filepath.Join(f.Logs, "old.log"), 10, testutil.Days(100))

	s := f.Settings()
	s.Categories = config.NewCategorySet(config.CategoryLogs)
	res := scan(t, f, s)

	require.Len(t, res.Items, 1)
	assert.Equal(t, logFile, res.Items[0].Path)
	assert.Nil(t, res.Trash)
}

// =============================================================================
// Safety Tests
// =============================================================================

func TestHiddenEntriesSkipped(t *testing.T) {
	f := testutil.NewFixture(t)
	hidden := f.CreateSizedFile(filepath.Join(f.Downloads, ".secret.iso"), 4096, 0)
	inHiddenDir := f.CreateSizedFile(filepath.Join(f.Downloads, ".stash", "disk.img"), 4096, 0)

	s := f.Settings()
	res := scan(t, f, s)
	_, ok := res.Lookup(hidden)
	assert.False(t, ok)
	_, ok = res.Lookup(inHiddenDir)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, res.Skipped, 2)

	s.IncludeHidden = true
	res = scan(t, f, s)
	_, ok = res.Lookup(hidden)
	assert.True(t, ok)
	_, ok = res.Lookup(inHiddenDir)
	assert.True(t, ok)
}

func TestBlockedAndPersonalNeverReported(t *testing.T) {
	f := testutil.NewFixture(t)
	sys := f.CreateSizedFile(filepath.Join(f.System, "kernel.img"), 8192, testutil.Days(400))
	doc := f.CreateSizedFile(filepath.Join(f.Documents, "thesis.pdf"), 8192, testutil.Days(400))
	dl := f.CreateSizedFile(filepath.Join(f.Downloads, "movie.mkv"), 8192, 0)

	s := f.Settings()
	s.ExtraRoots = []string{f.RootDir}
	res := scan(t, f, s)

	_, ok := res.Lookup(sys)
	assert.False(t, ok, "blocked file reported")
	_, ok = res.Lookup(doc)
	assert.False(t, ok, "personal file reported without consent")
	_, ok = res.Lookup(dl)
	assert.True(t, ok)
	assert.Equal(t, 1, countPath(res, dl), "paths are unique within a result")

	s.AllowPersonalFolders = true
	res = scan(t, f, s)
	_, ok = res.Lookup(doc)
	assert.True(t, ok, "personal file allowed with consent")
	_, ok = res.Lookup(sys)
	assert.False(t, ok, "blocked file reported with personal consent")
}

func TestBlockedRootRejected(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile(filepath.Join(f.System, "kernel.img"), 8192, 0)

	s := f.Settings()
	s.ExtraRoots = []string{f.System}
	res := scan(t, f, s)

	assert.Empty(t, res.Items)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, ErrorRejected, res.Errors[0].Kind)
	assert.Equal(t, f.System, res.Errors[0].Path)
}

func TestSymlinkedRoot(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile(filepath.Join(f.System, "kernel.img"), 8192, 0)
	movie := f.CreateSizedFile(filepath.Join(f.Home, "media", "movie.mkv"), 8192, 0)

	toSystem := f.CreateSymlink(f.System, filepath.Join(f.Home, "big-stuff"))
	toMedia := f.CreateSymlink(filepath.Join(f.Home, "media"), filepath.Join(f.Home, "media-link"))

	tests := []struct {
		name      string
		root      string
		follow    bool
		wantItems int
	}{
		{"protected target, not followed", toSystem, false, 0},
		{"protected target, followed", toSystem, true, 0},
		{"plain target, not followed", toMedia, false, 0},
		{"plain target, followed", toMedia, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := f.Settings()
			s.Categories = config.NewCategorySet(config.CategoryLargeFiles)
			s.ExtraRoots = []string{tt.root}
			s.FollowSymlinks = tt.follow
			res := scan(t, f, s)

			var fromRoot []Item
			for _, it := range res.Items {
				if strings.HasPrefix(it.Path, tt.root+string(filepath.Separator)) {
					fromRoot = append(fromRoot, it)
				}
			}
			assert.Len(t, fromRoot, tt.wantItems)
			if tt.wantItems == 0 {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, ErrorRejected, res.Errors[0].Kind)
				assert.Equal(t, tt.root, res.Errors[0].Path)
			} else {
				_, ok := res.Lookup(filepath.Join(tt.root, filepath.Base(movie)))
				assert.True(t, ok)
			}
		})
	}
}

func TestSymlinkToBlockedNotFollowed(t *testing.T) {
	f := testutil.NewFixture(t)
	secret := f.CreateSizedFile(filepath.Join(f.System, "huge.bin"), 8192, 0)
	link := f.CreateSymlink(f.System, filepath.Join(f.Downloads, "shortcut"))

	for _, follow := range []bool{false, true} {
		t.Run(fmt.Sprintf("follow=%v", follow), func(t *testing.T) {
			s := f.Settings()
			s.FollowSymlinks = follow
			res := scan(t, f, s)

			for _, it := range res.Items {
				assert.NotEqual(t, secret, it.Path)
				assert.NotEqual(t, filepath.Join(link, "huge.bin"), it.Path)
			}
		})
	}
}

func TestSymlinkLoopTerminates(t *testing.T) {
	f := testutil.NewFixture(t)
	dir := f.CreateDir(filepath.Join(f.Downloads, "a"))
	big := f.CreateSizedFile(filepath.Join(dir, "big.bin"), 4096, 0)
	f.CreateSymlink(dir, filepath.Join(dir, "loop"))

	s := f.Settings()
	s.FollowSymlinks = true
	res := scan(t, f, s)

	_, ok := res.Lookup(big)
	assert.True(t, ok)
	assert.Len(t, res.Items, 1)
}

func TestUnreadableDirectoryRecorded(t *testing.T) {
	testutil.SkipIfRoot(t)

	f := testutil.NewFixture(t)
	locked := f.CreateUnreadableDir(filepath.Join(f.Downloads, "locked"))
	ok := f.CreateSizedFile(filepath.Join(f.Downloads, "z.iso"), 4096, 0)

	res := scan(t, f, f.Settings())

	_, found := res.Lookup(ok)
	assert.True(t, found, "scan continues past unreadable directories")
	var kinds []ErrorKind
	for _, e := range res.Errors {
		if e.Path == locked {
			kinds = append(kinds, e.Kind)
		}
	}
	assert.Equal(t, []ErrorKind{ErrorAccess}, kinds)
}

// =============================================================================
// Limits and Lifecycle Tests
// =============================================================================

func TestMaxResultsTruncates(t *testing.T) {
	f := testutil.NewFixture(t)
	for i := range 10 {
		f.CreateSizedFile(filepath.Join(f.Downloads, fmt.Sprintf("file%02d.bin", i)), 2048, 0)
	}

	s := f.Settings()
	s.MaxResults = 5
	res := scan(t, f, s)

	assert.Len(t, res.Items, 5)
	assert.True(t, res.Truncated)
}

func TestMaxResultsExactlyReachedIsNotTruncated(t *testing.T) {
	f := testutil.NewFixture(t)
	for i := range 3 {
		f.CreateSizedFile(filepath.Join(f.Downloads, fmt.Sprintf("file%d.bin", i)), 2048, 0)
	}

	s := f.Settings()
	s.MaxResults = 3
	s.Categories = config.NewCategorySet(config.CategoryLargeFiles)
	res := scan(t, f, s)

	assert.Len(t, res.Items, 3)
	assert.False(t, res.Truncated)
}

func TestScanIsIdempotent(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile(filepath.Join(f.Downloads, "b.iso"), 4096, 0)
	f.CreateSizedFile(filepath.Join(f.Downloads, "a", "c.iso"), 4096, testutil.Days(120))
	f.CreateSizedFile(filepath.Join(f.Logs, "x.log"), 10, testutil.Days(120))

	sc := newScanner(t, f, f.Settings())
	first := sc.Scan(context.Background(), nil)
	second := sc.Scan(context.Background(), nil)

	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, first.TotalSize, second.TotalSize)
}

func TestScanCancelled(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile(filepath.Join(f.Downloads, "big.iso"), 4096, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newScanner(t, f, f.Settings()).Scan(ctx, nil)
	assert.True(t, res.Cancelled)
	assert.True(t, res.Sealed())
	assert.Empty(t, res.Items)
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	f := testutil.NewFixture(t)
	s := f.Settings()
	s.MaxResults = 0

	_, err := New(s, f.Classifier(), f.Locations())
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidSettings))

	_, err = New(f.Settings(), nil, f.Locations())
	assert.Error(t, err)
}

func TestSettingsAreSnapshotted(t *testing.T) {
	f := testutil.NewFixture(t)
	s := f.Settings()
	s.ExtraRoots = []string{f.Documents}

	sc := newScanner(t, f, s)
	s.ExtraRoots[0] = f.System
	s.MaxResults = 1

	assert.Equal(t, []string{f.Documents}, sc.Settings().ExtraRoots)
	assert.Equal(t, 500, sc.Settings().MaxResults)
}

func TestMissingRootsAreIgnored(t *testing.T) {
	f := testutil.NewFixture(t)
	require.NoError(t, os.RemoveAll(f.Logs))
	require.NoError(t, os.RemoveAll(filepath.Dir(f.Trash)))

	res := scan(t, f, f.Settings())
	assert.Empty(t, res.Errors)
	require.NotNil(t, res.Trash)
	assert.Zero(t, res.Trash.Entries)
}

// =============================================================================
// Result Helper Tests
// =============================================================================

func TestResultSortedAndGrouped(t *testing.T) {
	f := testutil.NewFixture(t)
	small := f.CreateSizedFile(filepath.Join(f.Downloads, "a.bin"), 2000, testutil.Days(2))
	large := f.CreateSizedFile(filepath.Join(f.Downloads, "b.bin"), 9000, testutil.Days(1))
	oldest := f.CreateSizedFile(filepath.Join(f.Logs, "c.log"), 5, testutil.Days(90))

	res := scan(t, f, f.Settings())
	require.Len(t, res.Items, 3)

	bySize := res.Sorted(SortSize)
	assert.Equal(t, large, bySize[0].Path)
	assert.Equal(t, oldest, bySize[2].Path)

	byAge := res.Sorted(SortAge)
	assert.Equal(t, oldest, byAge[0].Path)

	assert.Equal(t, []string{small, large, oldest}, res.Paths(), "result keeps discovery order")

	groups := res.GroupByCategory()
	require.Len(t, groups, 2)
	assert.Equal(t, config.CategoryLargeFiles, groups[0].Category)
	assert.Equal(t, int64(11000), groups[0].TotalSize)
	assert.Equal(t, config.CategoryLogs, groups[1].Category)
}

func countPath(res *Result, path string) int {
	n := 0
	for _, it := range res.Items {
		if it.Path == path {
			n++
		}
	}
	return n
}

func TestMeasureTrash(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile(filepath.Join(f.Trash, "a"), 10, 0)
	f.CreateSizedFile(filepath.Join(f.Trash, "dir", "b"), 20, 0)

	summary, errs := MeasureTrash(context.Background(), f.Trash)
	assert.Empty(t, errs)
	assert.Equal(t, f.Trash, summary.Path)
	assert.Equal(t, 2, summary.Entries)
	assert.Equal(t, int64(30), summary.Size)

	missing, errs := MeasureTrash(context.Background(), filepath.Join(f.RootDir, "nope"))
	assert.Empty(t, errs)
	assert.Zero(t, missing.Entries)
}
