package utils

import (
	"path/filepath"
	"strings"
)

// TruncatePath shortens path to maxWidth bytes, keeping the file name and as
// much of the start and end of the directory as fits.
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}
	if maxWidth < 10 {
		return "..."
	}

	dir, file := filepath.Split(path)
	if len(file) > maxWidth-4 {
		return "..." + file[len(file)-(maxWidth-4):]
	}

	available := maxWidth - len(file) - 3
	if available <= 0 {
		return "..." + file
	}

	sep := string(filepath.Separator)
	dir = filepath.Clean(dir)
	if available < 10 {
		return "..." + sep + file
	}

	parts := strings.Split(dir, sep)
	if len(parts) <= 2 {
		// Clean may have shortened dir below the budget
		if len(dir) <= available {
			return strings.TrimSuffix(dir, sep) + sep + file
		}
		return "..." + dir[len(dir)-available:] + sep + file
	}

	first := parts[0]
	if first == "" {
		first = sep + parts[1]
	}
	last := parts[len(parts)-1]

	if len(first)+len(last)+5 <= available {
		return first + sep + "..." + sep + last + sep + file
	}
	return "..." + sep + last + sep + file
}
