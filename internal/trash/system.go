package trash

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

const commandTimeout = 30 * time.Second

// System returns the platform's own trash: Finder on macOS, gio on Linux.
// Elsewhere every call fails with ErrUnavailable.
func System() Facility {
	switch runtime.GOOS {
	case "darwin":
		return finder{}
	case "linux":
		return gio{}
	default:
		return unavailable{}
	}
}

type unavailable struct{}

func (unavailable) Trash(context.Context, string) (string, error) { return "", ErrUnavailable }
func (unavailable) Empty(context.Context) error                   { return ErrUnavailable }

// finder drives Finder through osascript so trashed items get "Put Back".
type finder struct{}

func (finder) Trash(ctx context.Context, path string) (string, error) {
	escaped, err := escapeAppleScript(path)
	if err != nil {
		return "", err
	}
	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file "%s"`, escaped)
	return "", run(ctx, "osascript", "-e", script)
}

func (finder) Empty(ctx context.Context) error {
	return run(ctx, "osascript", "-e", `tell application "Finder" to empty trash`)
}

// gio uses GLib's implementation of the freedesktop trash.
type gio struct{}

func (gio) Trash(ctx context.Context, path string) (string, error) {
	return "", run(ctx, "gio", "trash", "--", path)
}

func (gio) Empty(ctx context.Context) error {
	return run(ctx, "gio", "trash", "--empty")
}

func run(ctx context.Context, name string, args ...string) error {
	bin, err := exec.LookPath(name)
	if err != nil {
		return ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s: timeout after %v", name, commandTimeout)
		}
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// ErrInvalidPath is returned for paths that cannot be passed to AppleScript.
var ErrInvalidPath = errors.New("path contains invalid characters")

func escapeAppleScript(s string) (string, error) {
	if strings.ContainsAny(s, "\n\r") {
		return "", ErrInvalidPath
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s, nil
}
