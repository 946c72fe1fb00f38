package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		width int
		want  string
	}{
		{"fits", "/short", 20, "/short"},
		{"tiny width", "/a/b/c/d.txt", 5, "..."},
		{"narrow directory budget", "/a/b/c/d.txt", 11, ".../d.txt"},
		{"long file name", "/x/" + strings.Repeat("n", 30) + ".iso", 20, "..." + strings.Repeat("n", 12) + ".iso"},
		{"keeps first and last folder", "/Users/bob/Library/Caches/com.example.app/data.db", 40, "/Users/.../com.example.app/data.db"},
		{"drops first folder when tight", "/Users/bob/Library/Caches/com.example.app/data.db", 35, ".../com.example.app/data.db"},
		{"repeated separators", "/xx" + strings.Repeat("/", 30) + "file.txt", 25, "/xx/file.txt"},
		{"repeated separators at root", strings.Repeat("/", 30) + "file.txt", 25, "/file.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncatePath(tt.path, tt.width)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), max(tt.width, 3))
		})
	}
}
