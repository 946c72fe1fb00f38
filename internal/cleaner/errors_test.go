package cleaner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/safeclean/internal/trash"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason ErrorReason
	}{
		{"EACCES", syscall.EACCES, ErrorPermissionDenied},
		{"EPERM", syscall.EPERM, ErrorPermissionDenied},
		{"ENOENT", syscall.ENOENT, ErrorFileNotFound},
		{"EBUSY", syscall.EBUSY, ErrorFileInUse},
		{"ETXTBSY", syscall.ETXTBSY, ErrorFileInUse},
		{"EXDEV", syscall.EXDEV, ErrorCrossDevice},
		{"os.ErrNotExist", os.ErrNotExist, ErrorFileNotFound},
		{"os.ErrPermission", os.ErrPermission, ErrorPermissionDenied},
		{"path error", &fs.PathError{Op: "rename", Path: "/x", Err: syscall.EBUSY}, ErrorFileInUse},
		{"wrapped not exist", fmt.Errorf("lstat: %w", fs.ErrNotExist), ErrorFileNotFound},
		{"cross device", fmt.Errorf("/x: %w", trash.ErrCrossDevice), ErrorCrossDevice},
		{"no trash", fmt.Errorf("move to trash: %w", trash.ErrUnavailable), ErrorTrashUnavailable},
		{"both trashes failed", errors.Join(trash.ErrUnavailable, &fs.PathError{Op: "rename", Path: "/x", Err: syscall.EACCES}), ErrorPermissionDenied},
		{"generic", errors.New("something went wrong"), ErrorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategorizeError("/test/path", tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Equal(t, "/test/path", got.Path)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, CategorizeError("/test/path", nil))
}

func TestUserMessage(t *testing.T) {
	for _, reason := range []ErrorReason{
		ErrorPermissionDenied,
		ErrorFileInUse,
		ErrorFileNotFound,
		ErrorCrossDevice,
		ErrorTrashUnavailable,
		ErrorUnknown,
	} {
		e := &DeletionError{Path: "/a/b", Reason: reason, Original: errors.New("boom")}
		assert.Contains(t, e.UserMessage(), "/a/b", reason.String())
		assert.NotEqual(t, "Unspecified error", reason.String())
	}
}

func TestFormatErrorSummary(t *testing.T) {
	assert.Empty(t, FormatErrorSummary(nil))

	errs := []*DeletionError{
		{Path: "/a", Reason: ErrorPermissionDenied},
		{Path: "/b", Reason: ErrorPermissionDenied},
		{Path: "/c", Reason: ErrorFileNotFound},
		{Path: "/d", Reason: ErrorUnknown},
	}
	summary := FormatErrorSummary(errs)
	assert.Contains(t, summary, "Permission denied: 2 items")
	assert.Contains(t, summary, "Already gone: 1 items")
	assert.Contains(t, summary, "Other errors: 1 items")
	assert.NotContains(t, summary, "In use")

	grouped := GroupErrors(errs)
	assert.Len(t, grouped[ErrorPermissionDenied], 2)
}
