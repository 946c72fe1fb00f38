// Package engine is the single entry point the CLI and TUI drive. It owns
// the one active scan and keeps scans and deletions from overlapping.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/fenilsonani/safeclean/internal/cleaner"
	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/platform"
	"github.com/fenilsonani/safeclean/internal/progress"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/internal/security"
	"github.com/fenilsonani/safeclean/internal/trash"
)

// ErrBusy is returned when a scan or deletion is already running
var ErrBusy = errors.New("another scan or deletion is in progress")

// Engine serializes scans and deletions over one set of safety rules
type Engine struct {
	classifier *security.Classifier
	locations  platform.Locations
	cleaner    *cleaner.Cleaner
	log        *slog.Logger
	progress   *progress.Reporter

	mu       sync.Mutex
	active   *scanner.Task
	deleting bool
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the operational logger shared by scanner and cleaner
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithProgress publishes deletion progress to pr
func WithProgress(pr *progress.Reporter) Option {
	return func(e *Engine) {
		e.progress = pr
	}
}

// New creates an Engine
func New(classifier *security.Classifier, locations platform.Locations, trasher *trash.Trasher, opts ...Option) *Engine {
	e := &Engine{
		classifier: classifier,
		locations:  locations,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	copts := []cleaner.Option{
		cleaner.WithLogger(e.log),
		cleaner.WithTrashDir(locations.Trash),
	}
	if e.progress != nil {
		copts = append(copts, cleaner.WithProgress(e.progress))
	}
	e.cleaner = cleaner.New(classifier, trasher, copts...)
	return e
}

// StartScan begins a scan on its own goroutine. Settings are validated
// before anything is touched and copied so later edits are not observed.
func (e *Engine) StartScan(ctx context.Context, s config.Settings) (*scanner.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.busyLocked() {
		return nil, ErrBusy
	}

	sc, err := scanner.New(s, e.classifier, e.locations, scanner.WithLogger(e.log))
	if err != nil {
		return nil, err
	}
	task := scanner.Start(ctx, sc)
	e.active = task
	return task, nil
}

// Cancel stops the active scan, if any
func (e *Engine) Cancel() {
	e.mu.Lock()
	task := e.active
	e.mu.Unlock()

	if task != nil {
		task.Cancel()
	}
}

// Delete moves selected paths to the trash on the calling goroutine
func (e *Engine) Delete(ctx context.Context, req cleaner.Request) (*cleaner.Report, error) {
	if err := e.beginDelete(); err != nil {
		return nil, err
	}
	defer e.endDelete()

	return e.cleaner.Delete(ctx, req)
}

// EmptyTrash permanently empties the trash
func (e *Engine) EmptyTrash(ctx context.Context, s config.Settings, confirmation string) (*cleaner.Report, error) {
	if err := e.beginDelete(); err != nil {
		return nil, err
	}
	defer e.endDelete()

	return e.cleaner.EmptyTrash(ctx, s, confirmation)
}

// Classify explains how the safety rules treat path
func (e *Engine) Classify(path string, s config.Settings) security.Verdict {
	return e.classifier.ExplainResolved(path, s)
}

// Locations returns the folders this engine scans
func (e *Engine) Locations() platform.Locations {
	return e.locations
}

func (e *Engine) beginDelete() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busyLocked() {
		return ErrBusy
	}
	e.deleting = true
	return nil
}

func (e *Engine) endDelete() {
	e.mu.Lock()
	e.deleting = false
	e.mu.Unlock()
}

// busyLocked must be called with mu held
func (e *Engine) busyLocked() bool {
	if e.deleting {
		return true
	}
	if e.active == nil {
		return false
	}
	select {
	case <-e.active.Done():
		e.active = nil
		return false
	default:
		return true
	}
}
