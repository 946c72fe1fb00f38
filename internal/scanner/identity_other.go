//go:build !unix

package scanner

import "path/filepath"

// fileID falls back to the resolved path where device and inode numbers
// are not available.
type fileID struct {
	path string
}

func identityOf(path string) (fileID, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fileID{}, false
	}
	return fileID{path: resolved}, true
}
