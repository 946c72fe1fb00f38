package utils

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	B   = 1
	KiB = 1024 * B
	MiB = 1024 * KiB
	GiB = 1024 * MiB
	TiB = 1024 * GiB
)

// FormatBytes converts bytes to human-readable binary units ("1.5 GiB").
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// ParseSize converts a human-readable size to bytes. Both SI ("1GB") and
// IEC ("1GiB") suffixes are accepted; a bare number is bytes.
func ParseSize(size string) (int64, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return 0, fmt.Errorf("invalid size format: empty")
	}
	n, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, fmt.Errorf("invalid size format %q: %w", size, err)
	}
	if n > uint64(1<<63-1) {
		return 0, fmt.Errorf("size out of range: %s", size)
	}
	return int64(n), nil
}
