package cleaner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/progress"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/internal/security"
	"github.com/fenilsonani/safeclean/internal/testutil"
	"github.com/fenilsonani/safeclean/internal/trash"
)

func scanFixture(t *testing.T, f *testutil.TestFixture, s config.Settings) *scanner.Result {
	t.Helper()
	sc, err := scanner.New(s, f.Classifier(), f.Locations())
	require.NoError(t, err)
	res := sc.Scan(context.Background(), nil)
	require.True(t, res.Sealed())
	return res
}

func fixtureTrasher(f *testutil.TestFixture) *trash.Trasher {
	return trash.New(nil, trash.Dir{Files: f.Trash, Info: f.TrashInfo}, nil)
}

func liveSettings(f *testutil.TestFixture) config.Settings {
	s := f.Settings()
	s.DryRun = false
	return s
}

// threeLargeFiles creates three large downloads and returns their paths
func threeLargeFiles(f *testutil.TestFixture) []string {
	return []string{
		f.CreateSizedFile(filepath.Join(f.Downloads, "a.iso"), 2048, 0),
		f.CreateSizedFile(filepath.Join(f.Downloads, "b.iso"), 4096, 0),
		f.CreateSizedFile(filepath.Join(f.Downloads, "c.iso"), 8192, 0),
	}
}

func trashCount(t *testing.T, f *testutil.TestFixture) int {
	t.Helper()
	n, err := testutil.CountEntries(f.Trash)
	require.NoError(t, err)
	return n
}

// =============================================================================
// Confirmation and request validation
// =============================================================================

func TestDeleteConfirmationGate(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := threeLargeFiles(f)
	res := scanFixture(t, f, f.Settings())
	c := New(f.Classifier(), fixtureTrasher(f))

	for _, token := range []string{"delete", "", "DELETE ", "Delete", "EMPTY TRASH"} {
		t.Run(token, func(t *testing.T) {
			report, err := c.Delete(context.Background(), Request{
				Result:       res,
				Paths:        paths,
				Settings:     liveSettings(f),
				Confirmation: token,
			})
			require.ErrorIs(t, err, ErrConfirmationRejected)
			assert.Nil(t, report)
		})
	}

	for _, p := range paths {
		f.AssertFileExists(p)
	}
	assert.Zero(t, trashCount(t, f))
}

func TestDeleteRequiresCompletedScan(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := threeLargeFiles(f)
	c := New(f.Classifier(), fixtureTrasher(f))

	_, err := c.Delete(context.Background(), Request{Paths: paths, Settings: liveSettings(f), Confirmation: ConfirmDelete})
	require.ErrorIs(t, err, config.ErrInvalidSettings)

	_, err = c.Delete(context.Background(), Request{Result: &scanner.Result{}, Paths: paths, Settings: liveSettings(f), Confirmation: ConfirmDelete})
	require.ErrorIs(t, err, config.ErrInvalidSettings)

	res := scanFixture(t, f, f.Settings())
	_, err = c.Delete(context.Background(), Request{Result: res, Settings: liveSettings(f), Confirmation: ConfirmDelete})
	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "paths", verr.Field)

	for _, p := range paths {
		f.AssertFileExists(p)
	}
}

func TestDeleteInvalidSettings(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := threeLargeFiles(f)
	res := scanFixture(t, f, f.Settings())
	c := New(f.Classifier(), fixtureTrasher(f))

	s := liveSettings(f)
	s.MaxResults = 0
	_, err := c.Delete(context.Background(), Request{Result: res, Paths: paths, Settings: s, Confirmation: ConfirmDelete})
	require.ErrorIs(t, err, config.ErrInvalidSettings)
	assert.Zero(t, trashCount(t, f))
}

// =============================================================================
// Dry run
// =============================================================================

func TestDeleteDryRunLeavesFiles(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := threeLargeFiles(f)
	res := scanFixture(t, f, f.Settings())
	c := New(f.Classifier(), fixtureTrasher(f))

	s := f.Settings()
	require.True(t, s.DryRun)

	report, err := c.Delete(context.Background(), Request{Result: res, Paths: paths, Settings: s, Confirmation: ConfirmDelete})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, int64(2048+4096+8192), report.BytesFreed)
	for _, o := range report.Outcomes {
		assert.Equal(t, StatusDryRun, o.Status)
		assert.Empty(t, o.Location)
	}
	for _, p := range paths {
		f.AssertFileExists(p)
	}
	assert.Zero(t, trashCount(t, f))
	assert.Contains(t, report.Summary(), "would be moved to trash")
}

// =============================================================================
// Trash-only removal
// =============================================================================

func TestDeleteMovesToTrash(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := threeLargeFiles(f)
	res := scanFixture(t, f, f.Settings())
	c := New(f.Classifier(), fixtureTrasher(f))

	report, err := c.Delete(context.Background(), Request{Result: res, Paths: paths, Settings: liveSettings(f), Confirmation: ConfirmDelete})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, 3, report.Succeeded)
	assert.Zero(t, report.Failed)
	for i, o := range report.Outcomes {
		assert.Equal(t, paths[i], o.Path)
		assert.Equal(t, StatusTrashed, o.Status)
		assert.Equal(t, trash.MethodFallback, o.Method)
		f.AssertFileNotExists(o.Path)
		f.AssertFileExists(o.Location)
		assert.Equal(t, f.Trash, filepath.Dir(o.Location))
	}
	assert.Equal(t, 3, trashCount(t, f))
}

func TestDeleteMovesCacheDirectory(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile(filepath.Join(f.Caches, "com.example", "blob"), 500, 0)
	dir := f.CreateDirWithAge(filepath.Join(f.Caches, "com.example"), testutil.Days(60))

	res := scanFixture(t, f, f.Settings())
	_, ok := res.Lookup(dir)
	require.True(t, ok)

	c := New(f.Classifier(), fixtureTrasher(f))
	report, err := c.Delete(context.Background(), Request{Result: res, Paths: []string{dir}, Settings: liveSettings(f), Confirmation: ConfirmDelete})
	require.NoError(t, err)

	require.Equal(t, 1, report.Succeeded)
	f.AssertFileNotExists(dir)
	f.AssertFileExists(filepath.Join(report.Outcomes[0].Location, "blob"))
}

// =============================================================================
// Reclassification
// =============================================================================

func TestDeletePartialReclassification(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := threeLargeFiles(f)
	res := scanFixture(t, f, f.Settings())

	// The rules tightened after the scan.
	tightened := security.NewClassifier(f.Rules().With([]string{paths[1]}, nil))
	c := New(tightened, fixtureTrasher(f))

	report, err := c.Delete(context.Background(), Request{Result: res, Paths: paths, Settings: liveSettings(f), Confirmation: ConfirmDelete})
	require.NoError(t, err)

	assert.Len(t, report.Outcomes, 3)
	assert.Equal(t, 1, report.Reclassified)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 3, report.Reclassified+report.Succeeded)

	assert.Equal(t, StatusReclassified, report.Outcomes[1].Status)
	assert.False(t, report.Outcomes[1].Succeeded)
	f.AssertFileExists(paths[1])
	f.AssertFileNotExists(paths[0])
	f.AssertFileNotExists(paths[2])
	assert.Equal(t, int64(2048+8192), report.BytesFreed)
}

func TestDeletePersonalRevoked(t *testing.T) {
	f := testutil.NewFixture(t)
	doc := f.CreateSizedFile(filepath.Join(f.Documents, "thesis-backup.tar"), 4096, 0)

	s := f.Settings()
	s.AllowPersonalFolders = true
	s.ExtraRoots = []string{f.Documents}
	res := scanFixture(t, f, s)
	_, ok := res.Lookup(doc)
	require.True(t, ok)

	c := New(f.Classifier(), fixtureTrasher(f))

	live := liveSettings(f)
	live.ExtraRoots = s.ExtraRoots
	report, err := c.Delete(context.Background(), Request{Result: res, Paths: []string{doc}, Settings: live, Confirmation: ConfirmDelete})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Reclassified)
	assert.Contains(t, report.Outcomes[0].Reason, "personal")
	f.AssertFileExists(doc)
}

func TestDeleteAllBlocked(t *testing.T) {
	f := testutil.NewFixture(t)
	sys := f.CreateFile(filepath.Join(f.System, "kernel"), []byte("x"))
	res := scanFixture(t, f, f.Settings())
	c := New(f.Classifier(), fixtureTrasher(f))

	report, err := c.Delete(context.Background(), Request{
		Result:       res,
		Paths:        []string{sys, f.Home, "/", "relative/path"},
		Settings:     liveSettings(f),
		Confirmation: ConfirmDelete,
	})
	require.ErrorIs(t, err, ErrAllBlocked)
	assert.Nil(t, report)
	f.AssertFileExists(sys)
	f.AssertFileExists(f.Home)
}

func TestDeleteRefusesSymlinkedParent(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile(filepath.Join(f.Downloads, "stuff", "big.iso"), 2048, 0)
	res := scanFixture(t, f, f.Settings())
	target := filepath.Join(f.Downloads, "stuff", "big.iso")
	_, ok := res.Lookup(target)
	require.True(t, ok)

	// Swap the directory for a link into a protected tree.
	f.CreateSizedFile(filepath.Join(f.System, "big.iso"), 2048, 0)
	require.NoError(t, os.RemoveAll(filepath.Join(f.Downloads, "stuff")))
	f.CreateSymlink(f.System, filepath.Join(f.Downloads, "stuff"))
	other := f.CreateSizedFile(filepath.Join(f.Downloads, "other.iso"), 2048, 0)

	c := New(f.Classifier(), fixtureTrasher(f))
	report, err := c.Delete(context.Background(), Request{
		Result:       res,
		Paths:        []string{target, other},
		Settings:     liveSettings(f),
		Confirmation: ConfirmDelete,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusReclassified, report.Outcomes[0].Status)
	f.AssertFileExists(filepath.Join(f.System, "big.iso"))
}

// swappingFacility runs swap on its first call, then either moves the path
// into moveTo or fails with err.
type swappingFacility struct {
	swap   func()
	moveTo string
	err    error
	calls  int
}

func (s *swappingFacility) Trash(_ context.Context, path string) (string, error) {
	s.calls++
	if s.calls == 1 && s.swap != nil {
		s.swap()
	}
	if s.err != nil {
		return "", s.err
	}
	dest := filepath.Join(s.moveTo, filepath.Base(path))
	return dest, os.Rename(path, dest)
}

func (s *swappingFacility) Empty(context.Context) error { return s.err }

// swapForProtectedLink replaces Downloads/stuff with a link into the
// protected tree, which holds a file of the same name.
func swapForProtectedLink(t *testing.T, f *testutil.TestFixture) func() {
	return func() {
		f.CreateSizedFile(filepath.Join(f.System, "big.iso"), 2048, 0)
		require.NoError(t, os.RemoveAll(filepath.Join(f.Downloads, "stuff")))
		f.CreateSymlink(f.System, filepath.Join(f.Downloads, "stuff"))
	}
}

func TestDeleteReclassifiesAfterEarlierMove(t *testing.T) {
	f := testutil.NewFixture(t)
	first := f.CreateSizedFile(filepath.Join(f.Downloads, "a.iso"), 2048, 0)
	second := f.CreateSizedFile(filepath.Join(f.Downloads, "stuff", "big.iso"), 2048, 0)
	res := scanFixture(t, f, f.Settings())

	primary := &swappingFacility{swap: swapForProtectedLink(t, f), moveTo: f.Trash}
	c := New(f.Classifier(), trash.New(primary, trash.Dir{Files: f.Trash, Info: f.TrashInfo}, nil))
	report, err := c.Delete(context.Background(), Request{
		Result:       res,
		Paths:        []string{first, second},
		Settings:     liveSettings(f),
		Confirmation: ConfirmDelete,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusTrashed, report.Outcomes[0].Status)
	assert.Equal(t, StatusReclassified, report.Outcomes[1].Status)
	assert.Equal(t, 1, primary.calls)
	f.AssertFileExists(filepath.Join(f.System, "big.iso"))
}

func TestDeleteReclassifiesBeforeFallback(t *testing.T) {
	f := testutil.NewFixture(t)
	target := f.CreateSizedFile(filepath.Join(f.Downloads, "stuff", "big.iso"), 2048, 0)
	res := scanFixture(t, f, f.Settings())

	// The system trash fails after the swap, leaving the fallback to act
	// on a path that now leads into the protected tree.
	primary := &swappingFacility{swap: swapForProtectedLink(t, f), err: trash.ErrUnavailable}
	c := New(f.Classifier(), trash.New(primary, trash.Dir{Files: f.Trash, Info: f.TrashInfo}, nil))
	report, err := c.Delete(context.Background(), Request{
		Result:       res,
		Paths:        []string{target},
		Settings:     liveSettings(f),
		Confirmation: ConfirmDelete,
	})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusReclassified, report.Outcomes[0].Status)
	assert.Equal(t, 1, report.Reclassified)
	f.AssertFileExists(filepath.Join(f.System, "big.iso"))
	assert.Zero(t, trashCount(t, f))
}

func TestDeletePathGoneAfterSystemTrashFailure(t *testing.T) {
	f := testutil.NewFixture(t)
	target := f.CreateSizedFile(filepath.Join(f.Downloads, "big.iso"), 2048, 0)
	res := scanFixture(t, f, f.Settings())

	primary := &swappingFacility{
		swap: func() { require.NoError(t, os.Remove(target)) },
		err:  errors.New("osascript timed out"),
	}
	c := New(f.Classifier(), trash.New(primary, trash.Dir{Files: f.Trash, Info: f.TrashInfo}, nil))
	report, err := c.Delete(context.Background(), Request{
		Result:       res,
		Paths:        []string{target},
		Settings:     liveSettings(f),
		Confirmation: ConfirmDelete,
	})
	require.NoError(t, err)

	o := report.Outcomes[0]
	assert.Equal(t, StatusFailed, o.Status)
	require.NotNil(t, o.Err)
	assert.Equal(t, ErrorFileNotFound, o.Err.Reason)
	assert.Zero(t, report.BytesFreed)
	assert.Zero(t, trashCount(t, f))
}

// =============================================================================
// Per-path outcomes
// =============================================================================

func TestDeleteDuplicatesAndUnknownPaths(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := threeLargeFiles(f)
	res := scanFixture(t, f, f.Settings())
	late := f.CreateSizedFile(filepath.Join(f.Downloads, "late.iso"), 2048, 0)

	c := New(f.Classifier(), fixtureTrasher(f))
	report, err := c.Delete(context.Background(), Request{
		Result:       res,
		Paths:        []string{paths[0], paths[0], late},
		Settings:     liveSettings(f),
		Confirmation: ConfirmDelete,
	})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, StatusTrashed, report.Outcomes[0].Status)
	assert.Equal(t, StatusSkipped, report.Outcomes[1].Status)
	assert.Equal(t, StatusSkipped, report.Outcomes[2].Status)
	assert.Equal(t, "not in scan result", report.Outcomes[2].Reason)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, report.Skipped)
	f.AssertFileExists(late)
}

func TestDeleteVanishedPath(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := threeLargeFiles(f)
	res := scanFixture(t, f, f.Settings())
	require.NoError(t, os.Remove(paths[0]))

	c := New(f.Classifier(), fixtureTrasher(f))
	report, err := c.Delete(context.Background(), Request{Result: res, Paths: paths, Settings: liveSettings(f), Confirmation: ConfirmDelete})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Succeeded)
	first := report.Outcomes[0]
	assert.Equal(t, StatusFailed, first.Status)
	require.NotNil(t, first.Err)
	assert.Equal(t, ErrorFileNotFound, first.Err.Reason)
	assert.Contains(t, report.Summary(), "1 failed")
}

func TestDeleteWithoutAnyTrash(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := threeLargeFiles(f)
	res := scanFixture(t, f, f.Settings())

	c := New(f.Classifier(), trash.New(nil, nil, nil))
	report, err := c.Delete(context.Background(), Request{Result: res, Paths: paths, Settings: liveSettings(f), Confirmation: ConfirmDelete})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Failed)
	for _, o := range report.Outcomes {
		assert.Equal(t, ErrorTrashUnavailable, o.Err.Reason)
	}
	for _, p := range paths {
		f.AssertFileExists(p)
	}
}

func TestDeleteCancelled(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := threeLargeFiles(f)
	res := scanFixture(t, f, f.Settings())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(f.Classifier(), fixtureTrasher(f))
	report, err := c.Delete(ctx, Request{Result: res, Paths: paths, Settings: liveSettings(f), Confirmation: ConfirmDelete})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Skipped)
	for _, o := range report.Outcomes {
		assert.Equal(t, "cancelled", o.Reason)
	}
	for _, p := range paths {
		f.AssertFileExists(p)
	}
}

func TestDeletePublishesProgress(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := threeLargeFiles(f)
	res := scanFixture(t, f, f.Settings())

	pr := progress.NewReporter()
	c := New(f.Classifier(), fixtureTrasher(f), WithProgress(pr))
	_, err := c.Delete(context.Background(), Request{Result: res, Paths: paths, Settings: liveSettings(f), Confirmation: ConfirmDelete})
	require.NoError(t, err)

	final := pr.Current()
	require.NotNil(t, final)
	assert.Equal(t, progress.PhaseComplete, final.Phase)
	assert.Equal(t, 3, final.Processed)
	assert.Equal(t, 3, final.Succeeded)
}

// =============================================================================
// Empty trash
// =============================================================================

func TestEmptyTrash(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile(filepath.Join(f.Trash, "one"), 100, 0)
	f.CreateSizedFile(filepath.Join(f.Trash, "two", "inner"), 50, 0)

	c := New(f.Classifier(), fixtureTrasher(f), WithTrashDir(f.Trash))

	_, err := c.EmptyTrash(context.Background(), liveSettings(f), "empty trash")
	require.ErrorIs(t, err, ErrConfirmationRejected)
	assert.Equal(t, 2, trashCount(t, f))

	report, err := c.EmptyTrash(context.Background(), f.Settings(), ConfirmEmptyTrash)
	require.NoError(t, err)
	assert.Equal(t, StatusDryRun, report.Outcomes[0].Status)
	assert.Equal(t, int64(150), report.BytesFreed)
	assert.Equal(t, 2, trashCount(t, f))

	report, err = c.EmptyTrash(context.Background(), liveSettings(f), ConfirmEmptyTrash)
	require.NoError(t, err)
	assert.Equal(t, StatusEmptied, report.Outcomes[0].Status)
	assert.Equal(t, trash.MethodFallback, report.Outcomes[0].Method)
	assert.Zero(t, trashCount(t, f))

	report, err = c.EmptyTrash(context.Background(), liveSettings(f), ConfirmEmptyTrash)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, report.Outcomes[0].Status)
}
