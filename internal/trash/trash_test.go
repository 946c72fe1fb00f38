package trash

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFacility struct {
	err     error
	moveTo  string // when set, Trash really moves the path here
	calls   []string
	emptied bool
}

func (f *fakeFacility) Trash(_ context.Context, path string) (string, error) {
	f.calls = append(f.calls, path)
	if f.err != nil {
		return "", f.err
	}
	if f.moveTo != "" {
		dest := filepath.Join(f.moveTo, filepath.Base(path))
		return dest, os.Rename(path, dest)
	}
	return "", nil
}

func (f *fakeFacility) Empty(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.emptied = true
	return nil
}

func writeFile(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0644))
	return path
}

// =============================================================================
// Trasher Tests
// =============================================================================

func TestTrasherUsesPrimary(t *testing.T) {
	primary := &fakeFacility{}
	fallback := &fakeFacility{}
	tr := New(primary, fallback, nil)

	p, err := tr.Trash(context.Background(), "/x/y", nil)
	require.NoError(t, err)
	assert.Equal(t, MethodSystem, p.Method)
	assert.Equal(t, []string{"/x/y"}, primary.calls)
	assert.Empty(t, fallback.calls)
}

func TestTrasherFallsBackWhenPathRemains(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, filepath.Join(root, "data", "old.zip"))
	bin := filepath.Join(root, "bin")

	tr := New(&fakeFacility{err: ErrUnavailable}, Dir{Files: bin}, nil)
	p, err := tr.Trash(context.Background(), src, nil)
	require.NoError(t, err)

	assert.Equal(t, MethodFallback, p.Method)
	assert.Equal(t, filepath.Join(bin, "old.zip"), p.Location)
	assert.NoFileExists(t, src)
	assert.FileExists(t, p.Location)
}

func TestTrasherPathGoneAfterPrimaryFailure(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, filepath.Join(root, "a.txt"))
	require.NoError(t, os.Remove(src))

	fallback := &fakeFacility{}
	tr := New(&fakeFacility{err: errors.New("timeout")}, fallback, nil)
	_, err := tr.Trash(context.Background(), src, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVanished)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "timeout")
	assert.Empty(t, fallback.calls)
}

func TestTrasherCheckRunsBeforeEachFacility(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, filepath.Join(root, "a.txt"))
	refused := errors.New("refused")

	var checked []string
	primary := &fakeFacility{err: ErrUnavailable}
	fallback := &fakeFacility{}
	tr := New(primary, fallback, nil)

	// The second check, before the fallback, refuses the move.
	_, err := tr.Trash(context.Background(), src, func(p string) error {
		checked = append(checked, p)
		if len(checked) == 2 {
			return refused
		}
		return nil
	})
	require.ErrorIs(t, err, refused)
	assert.Equal(t, []string{src, src}, checked)
	assert.Len(t, primary.calls, 1)
	assert.Empty(t, fallback.calls)
	assert.FileExists(t, src)

	primary.calls = nil
	_, err = tr.Trash(context.Background(), src, func(string) error { return refused })
	require.ErrorIs(t, err, refused)
	assert.Empty(t, primary.calls)
}

func TestTrasherBothFail(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, filepath.Join(root, "a.txt"))

	tr := New(&fakeFacility{err: ErrUnavailable}, &fakeFacility{err: errors.New("disk full")}, nil)
	_, err := tr.Trash(context.Background(), src, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "disk full")
	assert.FileExists(t, src)
}

func TestTrasherWithoutFacilities(t *testing.T) {
	_, err := New(nil, nil, nil).Trash(context.Background(), "/nowhere", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTrasherEmpty(t *testing.T) {
	primary := &fakeFacility{err: ErrUnavailable}
	fallback := &fakeFacility{}
	m, err := New(primary, fallback, nil).Empty(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MethodFallback, m)
	assert.True(t, fallback.emptied)
}

// =============================================================================
// Dir Tests
// =============================================================================

func TestDirNameCollisions(t *testing.T) {
	root := t.TempDir()
	bin := Dir{Files: filepath.Join(root, "bin")}

	var locations []string
	for _, sub := range []string{"a", "b", "c"} {
		src := writeFile(t, filepath.Join(root, sub, "report.tar.gz"))
		loc, err := bin.Trash(context.Background(), src)
		require.NoError(t, err)
		locations = append(locations, filepath.Base(loc))
	}

	assert.Equal(t, []string{"report.tar.gz", "report.tar_1.gz", "report.tar_2.gz"}, locations)
}

func TestDirHiddenNameCollision(t *testing.T) {
	root := t.TempDir()
	bin := Dir{Files: filepath.Join(root, "bin")}

	for _, sub := range []string{"a", "b"} {
		_, err := bin.Trash(context.Background(), writeFile(t, filepath.Join(root, sub, ".env")))
		require.NoError(t, err)
	}
	assert.FileExists(t, filepath.Join(root, "bin", ".env"))
	assert.FileExists(t, filepath.Join(root, "bin", ".env_1"))
}

func TestDirMovesDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cache", "blob"))
	bin := Dir{Files: filepath.Join(root, "bin")}

	loc, err := bin.Trash(context.Background(), filepath.Join(root, "cache"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(loc, "blob"))
	assert.NoDirExists(t, filepath.Join(root, "cache"))
}

func TestDirWritesTrashInfo(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, filepath.Join(root, "my docs", "a b.txt"))
	when := time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local)
	bin := Dir{
		Files: filepath.Join(root, "Trash", "files"),
		Info:  filepath.Join(root, "Trash", "info"),
		Now:   func() time.Time { return when },
	}

	_, err := bin.Trash(context.Background(), src)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(bin.Info, "a b.txt.trashinfo"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[Trash Info]", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Path="))
	assert.Contains(t, lines[1], "my%20docs/a%20b.txt")
	assert.Equal(t, "DeletionDate=2024-03-09T14:05:06", lines[2])
}

func TestDirMissingSource(t *testing.T) {
	root := t.TempDir()
	bin := Dir{Files: filepath.Join(root, "Trash", "files"), Info: filepath.Join(root, "Trash", "info")}

	_, err := bin.Trash(context.Background(), filepath.Join(root, "gone"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	entries, err := os.ReadDir(bin.Info)
	require.NoError(t, err)
	assert.Empty(t, entries, "reserved info record is removed on failure")
}

func TestDirEmpty(t *testing.T) {
	root := t.TempDir()
	bin := Dir{Files: filepath.Join(root, "Trash", "files"), Info: filepath.Join(root, "Trash", "info")}
	for _, name := range []string{"x", "y"} {
		_, err := bin.Trash(context.Background(), writeFile(t, filepath.Join(root, name)))
		require.NoError(t, err)
	}

	require.NoError(t, bin.Empty(context.Background()))

	for _, dir := range []string{bin.Files, bin.Info} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
	assert.DirExists(t, bin.Files, "the trash folder itself is kept")
}

func TestDirUnconfigured(t *testing.T) {
	_, err := Dir{}.Trash(context.Background(), "/x")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, Dir{}.Empty(context.Background()), ErrUnavailable)
}

func TestEscapeAppleScript(t *testing.T) {
	got, err := escapeAppleScript(`/Users/me/say "hi" \ bye`)
	require.NoError(t, err)
	assert.Equal(t, `/Users/me/say \"hi\" \\ bye`, got)

	_, err = escapeAppleScript("/bad\nname")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestUnavailableFacility(t *testing.T) {
	_, err := unavailable{}.Trash(context.Background(), "/x")
	assert.ErrorIs(t, err, ErrUnavailable)
}
