// Package testutil provides test helpers and fixtures for safeclean tests.
// All file operations use t.TempDir() for safe, isolated testing.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/platform"
	"github.com/fenilsonani/safeclean/internal/security"
)

// TestFixture is a synthetic home directory with its own safety rules.
// The real rule tables cannot be used in tests because temp directories
// live under /tmp or /var, both of which they block.
type TestFixture struct {
	T       testing.TB
	RootDir string // Root temp directory (auto-cleaned)
	Home    string

	// Standard test directories
	Downloads string
	Caches    string
	Logs      string
	Trash     string
	TrashInfo string
	Documents string // personal
	System    string // blocked
}

// NewFixture creates a new test fixture with standard directory structure
func NewFixture(t testing.TB) *TestFixture {
	t.Helper()

	root := t.TempDir()
	home := filepath.Join(root, "home")

	f := &TestFixture{
		T:         t,
		RootDir:   root,
		Home:      home,
		Downloads: filepath.Join(home, "Downloads"),
		Caches:    filepath.Join(home, ".cache"),
		Logs:      filepath.Join(home, "logs"),
		Trash:     filepath.Join(home, "Trash", "files"),
		TrashInfo: filepath.Join(home, "Trash", "info"),
		Documents: filepath.Join(home, "Documents"),
		System:    filepath.Join(root, "system"),
	}

	dirs := []string{
		f.Downloads,
		f.Caches,
		f.Logs,
		f.Trash,
		f.TrashInfo,
		f.Documents,
		f.System,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	return f
}

// Rules returns safety rules rooted in the fixture
func (f *TestFixture) Rules() security.Rules {
	return security.Rules{
		Blocked:  []string{f.System},
		Personal: []string{f.Documents},
		Exact:    []string{f.Home},
	}
}

// Classifier returns a classifier for the fixture rules
func (f *TestFixture) Classifier() *security.Classifier {
	return security.NewClassifier(f.Rules())
}

// Locations returns the fixture folders as platform locations
func (f *TestFixture) Locations() platform.Locations {
	return platform.Locations{
		Home:      f.Home,
		Downloads: f.Downloads,
		Caches:    f.Caches,
		Logs:      f.Logs,
		Trash:     f.Trash,
		TrashInfo: f.TrashInfo,
		AppData:   filepath.Join(f.Home, ".config", "safeclean"),
	}
}

// Settings returns default settings scaled for small fixture files:
// 1 KiB large-file threshold, everything else at defaults.
func (f *TestFixture) Settings() config.Settings {
	s := config.DefaultSettings()
	s.LargeFileThreshold = 1024
	return s
}

// =============================================================================
// File Creation Helpers
// =============================================================================

// CreateFile creates a file with specified content and returns its path
func (f *TestFixture) CreateFile(path string, content []byte) string {
	f.T.Helper()

	fullPath := f.Path(path)
	dir := filepath.Dir(fullPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateFileWithAge creates a file and sets its modification time to the past
func (f *TestFixture) CreateFileWithAge(path string, content []byte, age time.Duration) string {
	f.T.Helper()

	fullPath := f.CreateFile(path, content)
	f.SetAge(fullPath, age)
	return fullPath
}

// CreateSizedFile creates a file of exactly size bytes with the given age
func (f *TestFixture) CreateSizedFile(path string, size int64, age time.Duration) string {
	f.T.Helper()

	fullPath := f.CreateFile(path, nil)
	if err := os.Truncate(fullPath, size); err != nil {
		f.T.Fatalf("failed to size file %s: %v", fullPath, err)
	}
	f.SetAge(fullPath, age)
	return fullPath
}

// Days converts a day count to a duration
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// SetAge sets the modification time of an existing path to now minus age
func (f *TestFixture) SetAge(fullPath string, age time.Duration) {
	f.T.Helper()

	oldTime := time.Now().Add(-age)
	if err := os.Chtimes(fullPath, oldTime, oldTime); err != nil {
		f.T.Fatalf("failed to set file time for %s: %v", fullPath, err)
	}
}

// =============================================================================
// Directory Helpers
// =============================================================================

// CreateDir creates a directory and returns its path
func (f *TestFixture) CreateDir(path string) string {
	f.T.Helper()

	fullPath := f.Path(path)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateDirWithAge creates a directory with a specific modification time
func (f *TestFixture) CreateDirWithAge(path string, age time.Duration) string {
	f.T.Helper()

	fullPath := f.CreateDir(path)
	f.SetAge(fullPath, age)
	return fullPath
}

// CreateUnreadableDir creates a directory the current user cannot list
func (f *TestFixture) CreateUnreadableDir(path string) string {
	f.T.Helper()

	dirPath := f.CreateDir(path)
	f.CreateFile(filepath.Join(dirPath, "trapped.txt"), []byte("trapped"))
	if err := os.Chmod(dirPath, 0000); err != nil {
		f.T.Fatalf("failed to chmod directory %s: %v", dirPath, err)
	}

	// Restore permissions so TempDir cleanup works
	f.T.Cleanup(func() {
		os.Chmod(dirPath, 0755)
	})

	return dirPath
}

// =============================================================================
// Symlink Helpers
// =============================================================================

// CreateSymlink creates a symbolic link
func (f *TestFixture) CreateSymlink(target, linkPath string) string {
	f.T.Helper()

	fullLinkPath := f.Path(linkPath)
	dir := filepath.Dir(fullLinkPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.Symlink(target, fullLinkPath); err != nil {
		f.T.Fatalf("failed to create symlink %s -> %s: %v", fullLinkPath, target, err)
	}

	return fullLinkPath
}

// =============================================================================
// Path Helpers
// =============================================================================

// Path returns path unchanged when absolute, otherwise joined to the root
func (f *TestFixture) Path(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(f.RootDir, path)
}

// =============================================================================
// Assertion Helpers
// =============================================================================

// FileExists checks if a path exists (without following a final symlink)
func (f *TestFixture) FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// AssertFileExists fails the test if the file doesn't exist
func (f *TestFixture) AssertFileExists(path string) {
	f.T.Helper()
	if !f.FileExists(path) {
		f.T.Errorf("expected file to exist: %s", path)
	}
}

// AssertFileNotExists fails the test if the file exists
func (f *TestFixture) AssertFileNotExists(path string) {
	f.T.Helper()
	if f.FileExists(path) {
		f.T.Errorf("expected file to not exist: %s", path)
	}
}

// CountEntries returns the number of entries directly inside dir
func CountEntries(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// IsRoot returns true if running as root/admin
func IsRoot() bool {
	return os.Geteuid() == 0
}

// SkipIfRoot skips the test if running as root
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if IsRoot() {
		t.Skip("skipping test when running as root")
	}
}
