package cleaner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/progress"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/internal/security"
	"github.com/fenilsonani/safeclean/internal/trash"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

// Typed confirmations. Matching is exact and case-sensitive.
const (
	ConfirmDelete     = "DELETE"
	ConfirmEmptyTrash = "EMPTY TRASH"
)

// Status is the final state of one requested path
type Status string

const (
	StatusTrashed      Status = "trashed"
	StatusDryRun       Status = "dry_run"
	StatusFailed       Status = "failed"
	StatusReclassified Status = "reclassified"
	StatusSkipped      Status = "skipped"
	StatusEmptied      Status = "emptied"
)

// Outcome records what happened to one requested path
type Outcome struct {
	Path      string         `json:"path" yaml:"path"`
	Status    Status         `json:"status" yaml:"status"`
	Succeeded bool           `json:"succeeded" yaml:"succeeded"`
	Reason    string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	Method    trash.Method   `json:"method,omitempty" yaml:"method,omitempty"`
	Location  string         `json:"location,omitempty" yaml:"location,omitempty"`
	Size      int64          `json:"size" yaml:"size"`
	Err       *DeletionError `json:"-" yaml:"-"`
}

// Report covers every requested path exactly once, in request order.
type Report struct {
	Outcomes     []Outcome     `json:"outcomes" yaml:"outcomes"`
	Succeeded    int           `json:"succeeded" yaml:"succeeded"`
	Failed       int           `json:"failed" yaml:"failed"`
	Reclassified int           `json:"reclassified" yaml:"reclassified"`
	Skipped      int           `json:"skipped" yaml:"skipped"`
	BytesFreed   int64         `json:"bytes_freed" yaml:"bytes_freed"`
	DryRun       bool          `json:"dry_run" yaml:"dry_run"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

func (r *Report) add(o Outcome) {
	switch o.Status {
	case StatusTrashed, StatusDryRun, StatusEmptied:
		r.Succeeded++
		r.BytesFreed += o.Size
	case StatusFailed:
		r.Failed++
	case StatusReclassified:
		r.Reclassified++
	case StatusSkipped:
		r.Skipped++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Errors returns the categorized failures in request order
func (r *Report) Errors() []*DeletionError {
	var errs []*DeletionError
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// Summary returns a one-paragraph description of the report
func (r *Report) Summary() string {
	var b strings.Builder
	if r.DryRun {
		fmt.Fprintf(&b, "Dry run: %d items (%s) would be moved to trash",
			r.Succeeded, utils.FormatBytes(r.BytesFreed))
	} else {
		fmt.Fprintf(&b, "Moved %d items (%s) to trash",
			r.Succeeded, utils.FormatBytes(r.BytesFreed))
	}
	if r.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", r.Failed)
	}
	if r.Reclassified > 0 {
		fmt.Fprintf(&b, ", %d refused as now protected", r.Reclassified)
	}
	if r.Skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", r.Skipped)
	}
	b.WriteString(FormatErrorSummary(r.Errors()))
	return b.String()
}

// Request selects paths from a completed scan for removal
type Request struct {
	Result       *scanner.Result
	Paths        []string
	Settings     config.Settings
	Confirmation string
}

// Cleaner moves scanned items to the trash after checking them again
// against the safety rules.
type Cleaner struct {
	classifier *security.Classifier
	trasher    *trash.Trasher
	trashDir   string
	log        *slog.Logger
	progress   *progress.Reporter
	now        func() time.Time
}

// Option configures a Cleaner
type Option func(*Cleaner)

// WithLogger sets the operational logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Cleaner) {
		if l != nil {
			c.log = l
		}
	}
}

// WithProgress publishes deletion progress to pr
func WithProgress(pr *progress.Reporter) Option {
	return func(c *Cleaner) {
		c.progress = pr
	}
}

// WithTrashDir sets the folder measured when emptying the trash in dry run
func WithTrashDir(dir string) Option {
	return func(c *Cleaner) {
		c.trashDir = dir
	}
}

// New creates a new Cleaner
func New(classifier *security.Classifier, trasher *trash.Trasher, opts ...Option) *Cleaner {
	c := &Cleaner{
		classifier: classifier,
		trasher:    trasher,
		log:        slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Delete moves the requested paths to the trash. Only a wrong
// confirmation, an invalid request, or a request made up entirely of
// protected paths fails the call; everything else is reported per path.
func (c *Cleaner) Delete(ctx context.Context, req Request) (*Report, error) {
	if req.Confirmation != ConfirmDelete {
		c.log.Warn("deletion refused", "reason", "confirmation rejected", "paths", len(req.Paths))
		return nil, ErrConfirmationRejected
	}
	if req.Result == nil || !req.Result.Sealed() {
		return nil, &config.ValidationError{Field: "result", Message: "deletion requires a completed scan"}
	}
	if len(req.Paths) == 0 {
		return nil, &config.ValidationError{Field: "paths", Message: "nothing selected"}
	}
	s := req.Settings.Snapshot()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	blocked := 0
	for _, path := range req.Paths {
		if c.classifier.ExplainResolved(path, s).Class == security.Blocked {
			blocked++
		}
	}
	if blocked == len(req.Paths) {
		c.log.Warn("deletion refused", "reason", "all paths protected", "paths", len(req.Paths))
		return nil, ErrAllBlocked
	}

	start := c.now()
	report := &Report{DryRun: s.DryRun}
	seen := make(map[string]bool, len(req.Paths))
	total := len(req.Paths)

	c.log.Info("deletion started", "paths", total, "dry_run", s.DryRun)
	c.publish(&progress.CleanProgress{Phase: progress.PhaseCleaning, Total: total, DryRun: s.DryRun, StartTime: start})

	for i, path := range req.Paths {
		var o Outcome
		switch {
		case ctx.Err() != nil:
			o = Outcome{Path: path, Status: StatusSkipped, Reason: "cancelled"}
		case seen[path]:
			o = Outcome{Path: path, Status: StatusSkipped, Reason: "duplicate in request"}
		default:
			seen[path] = true
			o = c.deleteOne(ctx, req.Result, path, s)
		}
		report.add(o)

		c.publish(&progress.CleanProgress{
			Phase:       progress.PhaseCleaning,
			CurrentPath: path,
			Processed:   i + 1,
			Total:       total,
			Succeeded:   report.Succeeded,
			Failed:      report.Failed,
			FreedSize:   report.BytesFreed,
			DryRun:      s.DryRun,
			StartTime:   start,
		})
	}

	report.Duration = c.now().Sub(start)
	c.publish(&progress.CleanProgress{
		Phase:     progress.PhaseComplete,
		Processed: total,
		Total:     total,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		FreedSize: report.BytesFreed,
		DryRun:    s.DryRun,
		StartTime: start,
	})
	c.log.Info("deletion finished",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"reclassified", report.Reclassified,
		"skipped", report.Skipped,
		"bytes", report.BytesFreed,
		"dry_run", s.DryRun,
	)
	return report, nil
}

func (c *Cleaner) deleteOne(ctx context.Context, res *scanner.Result, path string, s config.Settings) Outcome {
	item, ok := res.Lookup(path)
	if !ok {
		c.log.Warn("path not in scan result", "path", path)
		return Outcome{Path: path, Status: StatusSkipped, Reason: "not in scan result"}
	}
	o := Outcome{Path: path, Size: item.Size}

	// The filesystem may have changed since the scan, or since the previous
	// item was moved, so the path is classified again right before acting.
	recheck := func(p string) error {
		v := c.classifier.ExplainResolved(p, s)
		if !security.Admits(v.Class, s) {
			return &reclassifiedError{verdict: v}
		}
		return nil
	}
	if err := recheck(path); err != nil {
		return c.reclassified(o, err.(*reclassifiedError))
	}

	if _, err := os.Lstat(path); err != nil {
		return c.fail(o, err)
	}

	if s.DryRun {
		o.Status = StatusDryRun
		o.Succeeded = true
		return o
	}

	placement, err := c.trasher.Trash(ctx, path, recheck)
	if err != nil {
		var re *reclassifiedError
		if errors.As(err, &re) {
			return c.reclassified(o, re)
		}
		return c.fail(o, err)
	}
	o.Status = StatusTrashed
	o.Succeeded = true
	o.Method = placement.Method
	o.Location = placement.Location
	c.log.Info("moved to trash", "path", path, "method", string(placement.Method), "location", placement.Location, "size", item.Size)
	return o
}

// reclassifiedError stops a move when a path no longer passes the rules
type reclassifiedError struct {
	verdict security.Verdict
}

func (e *reclassifiedError) Error() string {
	return fmt.Sprintf("%s is now %s", e.verdict.Path, strings.ToLower(e.verdict.Class.String()))
}

func (c *Cleaner) reclassified(o Outcome, re *reclassifiedError) Outcome {
	v := re.verdict
	c.log.Warn("reclassified path skipped", "path", o.Path, "resolved", v.Resolved, "class", v.Class.String(), "rule", v.Rule)
	o.Status = StatusReclassified
	o.Reason = fmt.Sprintf("now %s by rule %s", strings.ToLower(v.Class.String()), v.Rule)
	return o
}

func (c *Cleaner) fail(o Outcome, err error) Outcome {
	delErr := CategorizeError(o.Path, err)
	o.Status = StatusFailed
	o.Reason = delErr.UserMessage()
	o.Err = delErr
	o.Size = 0
	if errors.Is(err, fs.ErrNotExist) {
		c.log.Info("path vanished before deletion", "path", o.Path)
	} else {
		c.log.Error("move to trash failed", "path", o.Path, "reason", delErr.Reason.String(), "error", err)
	}
	return o
}

// EmptyTrash permanently removes the trash contents. It is the only
// permanent removal and has its own confirmation.
func (c *Cleaner) EmptyTrash(ctx context.Context, s config.Settings, confirmation string) (*Report, error) {
	if confirmation != ConfirmEmptyTrash {
		c.log.Warn("empty trash refused", "reason", "confirmation rejected")
		return nil, ErrConfirmationRejected
	}

	start := c.now()
	report := &Report{DryRun: s.DryRun}

	o := Outcome{Path: c.trashDir}
	if c.trashDir != "" {
		summary, _ := scanner.MeasureTrash(ctx, c.trashDir)
		o.Size = summary.Size
		if summary.Entries == 0 && !s.DryRun {
			o.Status = StatusSkipped
			o.Reason = "trash is already empty"
			report.add(o)
			report.Duration = c.now().Sub(start)
			return report, nil
		}
	}

	if s.DryRun {
		o.Status = StatusDryRun
		o.Succeeded = true
		report.add(o)
		report.Duration = c.now().Sub(start)
		return report, nil
	}

	method, err := c.trasher.Empty(ctx)
	if err != nil {
		report.add(c.fail(o, err))
	} else {
		o.Status = StatusEmptied
		o.Succeeded = true
		o.Method = method
		report.add(o)
		c.log.Info("trash emptied", "method", string(method), "bytes", o.Size)
	}
	report.Duration = c.now().Sub(start)
	return report, nil
}

func (c *Cleaner) publish(p *progress.CleanProgress) {
	if c.progress != nil {
		c.progress.Update(p)
	}
}
