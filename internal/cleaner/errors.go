package cleaner

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"

	"github.com/fenilsonani/safeclean/internal/trash"
)

var (
	// ErrConfirmationRejected is returned when the typed token does not
	// match exactly. Nothing has been touched.
	ErrConfirmationRejected = errors.New("confirmation rejected")
	// ErrAllBlocked is returned when every requested path is refused by
	// the safety rules.
	ErrAllBlocked = errors.New("every requested path is protected")
)

// ErrorReason categorizes why a deletion failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorCrossDevice
	ErrorTrashUnavailable
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorCrossDevice:
		return "Trash is on another volume"
	case ErrorTrashUnavailable:
		return "Trash unavailable"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// DeletionError represents a detailed deletion error
type DeletionError struct {
	Path     string
	Reason   ErrorReason
	Original error
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

func (e *DeletionError) Unwrap() error { return e.Original }

// UserMessage returns a user-friendly error message
func (e *DeletionError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		return fmt.Sprintf("Permission denied: %s (this tool never asks for elevated rights)", e.Path)
	case ErrorFileInUse:
		return fmt.Sprintf("File is being used: %s (close the application and try again)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("No longer exists: %s", e.Path)
	case ErrorCrossDevice:
		return fmt.Sprintf("Cannot move to trash from another volume: %s", e.Path)
	case ErrorTrashUnavailable:
		return fmt.Sprintf("No trash available for: %s", e.Path)
	default:
		return fmt.Sprintf("Error moving %s to trash: %v", e.Path, e.Original)
	}
}

// CategorizeError analyzes an error and returns a categorized DeletionError
func CategorizeError(path string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	delErr := &DeletionError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	switch {
	case errors.Is(err, trash.ErrCrossDevice):
		delErr.Reason = ErrorCrossDevice
		return delErr
	case errors.Is(err, fs.ErrNotExist):
		delErr.Reason = ErrorFileNotFound
		return delErr
	case errors.Is(err, fs.ErrPermission):
		delErr.Reason = ErrorPermissionDenied
		return delErr
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			delErr.Reason = ErrorPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			delErr.Reason = ErrorFileInUse
		case syscall.ENOENT:
			delErr.Reason = ErrorFileNotFound
		case syscall.EXDEV:
			delErr.Reason = ErrorCrossDevice
		}
		return delErr
	}

	if errors.Is(err, trash.ErrUnavailable) {
		delErr.Reason = ErrorTrashUnavailable
	}
	return delErr
}

// GroupErrors groups deletion errors by reason
func GroupErrors(errs []*DeletionError) map[ErrorReason][]*DeletionError {
	grouped := make(map[ErrorReason][]*DeletionError)
	for _, err := range errs {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}

// FormatErrorSummary creates a user-friendly summary of errors
func FormatErrorSummary(errs []*DeletionError) string {
	if len(errs) == 0 {
		return ""
	}

	grouped := GroupErrors(errs)
	var b strings.Builder
	b.WriteString("\nIssues encountered:\n")

	if perms, ok := grouped[ErrorPermissionDenied]; ok {
		fmt.Fprintf(&b, "   ├─ Permission denied: %d items\n", len(perms))
		b.WriteString("   │  └─ Tip: check ownership; elevated rights are never requested\n")
	}
	if busy, ok := grouped[ErrorFileInUse]; ok {
		fmt.Fprintf(&b, "   ├─ In use: %d items\n", len(busy))
		b.WriteString("   │  └─ Tip: close applications and retry\n")
	}
	if gone, ok := grouped[ErrorFileNotFound]; ok {
		fmt.Fprintf(&b, "   ├─ Already gone: %d items\n", len(gone))
	}
	if xdev, ok := grouped[ErrorCrossDevice]; ok {
		fmt.Fprintf(&b, "   ├─ On another volume: %d items\n", len(xdev))
	}
	if none, ok := grouped[ErrorTrashUnavailable]; ok {
		fmt.Fprintf(&b, "   ├─ No trash available: %d items\n", len(none))
	}
	if unknown, ok := grouped[ErrorUnknown]; ok {
		fmt.Fprintf(&b, "   └─ Other errors: %d items\n", len(unknown))
	}

	return b.String()
}
