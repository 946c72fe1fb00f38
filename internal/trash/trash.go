// Package trash moves files to the user's trash. Nothing here deletes a
// file outright except Empty, which the caller gates separately.
package trash

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

var (
	// ErrUnavailable is returned by a facility that cannot run on this system.
	ErrUnavailable = errors.New("trash facility unavailable")
	// ErrVanished is returned when the primary facility failed and the path
	// is gone anyway, so nothing shows it reached the trash.
	ErrVanished = fmt.Errorf("path vanished during move to trash: %w", fs.ErrNotExist)
)

// Check re-validates a path immediately before a facility moves it. A
// non-nil error stops the move and is returned unchanged.
type Check func(path string) error

// Facility moves a single path to a trash.
type Facility interface {
	// Trash moves path to the trash and returns where it ended up, when
	// the facility knows.
	Trash(ctx context.Context, path string) (location string, err error)
	// Empty permanently removes everything in the trash.
	Empty(ctx context.Context) error
}

// Method records which facility handled a path
type Method string

const (
	MethodSystem   Method = "system"
	MethodFallback Method = "fallback"
)

// Placement describes where a trashed path went
type Placement struct {
	Method   Method
	Location string
}

// Trasher tries the primary facility and falls back to the secondary.
type Trasher struct {
	primary  Facility
	fallback Facility
	log      *slog.Logger
}

// New creates a Trasher. Either facility may be nil.
func New(primary, fallback Facility, log *slog.Logger) *Trasher {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Trasher{primary: primary, fallback: fallback, log: log}
}

// Trash moves path to the trash. The fallback runs only when the primary
// fails and the path is still in place. check, when set, runs before each
// facility is tried.
func (t *Trasher) Trash(ctx context.Context, path string, check Check) (Placement, error) {
	var primaryErr error
	if t.primary != nil {
		if check != nil {
			if err := check(path); err != nil {
				return Placement{}, err
			}
		}
		loc, err := t.primary.Trash(ctx, path)
		if err == nil {
			return Placement{Method: MethodSystem, Location: loc}, nil
		}
		primaryErr = err

		if _, statErr := os.Lstat(path); errors.Is(statErr, fs.ErrNotExist) {
			t.log.Warn("system trash reported failure but path is gone", "path", path, "error", err)
			return Placement{}, fmt.Errorf("move to trash: %s: %w", path, errors.Join(ErrVanished, err))
		}
		if !errors.Is(err, ErrUnavailable) {
			t.log.Debug("system trash failed, trying fallback", "path", path, "error", err)
		}
	}

	if t.fallback == nil {
		if primaryErr == nil {
			primaryErr = ErrUnavailable
		}
		return Placement{}, fmt.Errorf("move to trash: %s: %w", path, primaryErr)
	}
	if err := ctx.Err(); err != nil {
		return Placement{}, err
	}
	if check != nil {
		if err := check(path); err != nil {
			return Placement{}, err
		}
	}

	loc, err := t.fallback.Trash(ctx, path)
	if err != nil {
		return Placement{}, fmt.Errorf("move to trash: %s: %w", path, errors.Join(primaryErr, err))
	}
	return Placement{Method: MethodFallback, Location: loc}, nil
}

// Empty empties the trash, preferring the primary facility.
func (t *Trasher) Empty(ctx context.Context) (Method, error) {
	var primaryErr error
	if t.primary != nil {
		if primaryErr = t.primary.Empty(ctx); primaryErr == nil {
			return MethodSystem, nil
		}
	}
	if t.fallback == nil {
		if primaryErr == nil {
			primaryErr = ErrUnavailable
		}
		return "", fmt.Errorf("empty trash: %w", primaryErr)
	}
	if err := t.fallback.Empty(ctx); err != nil {
		return "", fmt.Errorf("empty trash: %w", errors.Join(primaryErr, err))
	}
	return MethodFallback, nil
}
