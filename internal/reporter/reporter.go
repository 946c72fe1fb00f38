package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/safeclean/internal/cleaner"
	"github.com/fenilsonani/safeclean/internal/platform"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatCSV     OutputFormat = "csv"
	FormatSummary OutputFormat = "summary"
)

// Formats lists every supported output format
var Formats = []OutputFormat{FormatSummary, FormatTable, FormatJSON, FormatYAML, FormatCSV}

// ParseFormat validates a format name
func ParseFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

const (
	defaultWidth = 120
	minPathWidth = 24
	timeLayout   = "2006-01-02 15:04"
)

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
	width  int
	now    func() time.Time
}

// Option configures a Reporter
type Option func(*Reporter)

// WithWidth fixes the table width instead of asking the terminal
func WithWidth(w int) Option {
	return func(r *Reporter) {
		if w > 0 {
			r.width = w
		}
	}
}

// WithClock overrides the export timestamp source
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat, opts ...Option) *Reporter {
	r := &Reporter{
		writer: writer,
		format: format,
		width:  terminalWidth(writer),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

// Report writes a sealed scan result
func (r *Reporter) Report(result *scanner.Result) error {
	switch r.format {
	case FormatTable:
		return r.reportTable(result)
	case FormatJSON:
		return r.encodeJSON(r.scanDocument(result))
	case FormatYAML:
		return r.encodeYAML(r.scanDocument(result))
	case FormatCSV:
		return r.reportCSV(result, nil)
	case FormatSummary:
		return r.reportSummary(result)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportSummary generates a summary report
func (r *Reporter) reportSummary(result *scanner.Result) error {
	w := r.writer
	fmt.Fprintf(w, "=== Scan Summary ===\n")
	fmt.Fprintf(w, "Items: %d\n", len(result.Items))
	fmt.Fprintf(w, "Total Size: %s\n", utils.FormatBytes(result.TotalSize))
	fmt.Fprintf(w, "Entries checked: %d (skipped %d)\n", result.Scanned, result.Skipped)
	fmt.Fprintf(w, "Duration: %s\n", result.Duration().Round(time.Millisecond))

	groups := result.GroupByCategory()
	if len(groups) > 0 {
		fmt.Fprintf(w, "\nBreakdown by Category:\n")
		for _, g := range groups {
			fmt.Fprintf(w, "  %-22s %5d items  %10s\n",
				g.Category.Label()+":", len(g.Items), utils.FormatBytes(g.TotalSize))
		}
	}

	if result.Trash != nil {
		fmt.Fprintf(w, "\nTrash: %d entries, %s (reported only)\n",
			result.Trash.Entries, utils.FormatBytes(result.Trash.Size))
	}
	if result.Truncated {
		fmt.Fprintf(w, "\nResults truncated at %d items; raise max_results to see more.\n", result.Settings.MaxResults)
	}
	if result.Cancelled {
		fmt.Fprintf(w, "\nScan cancelled; results are partial.\n")
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors: %d paths could not be read\n", len(result.Errors))
	}
	if result.Settings.DryRun {
		fmt.Fprintf(w, "\nDry run is on: cleaning will only report what it would do.\n")
	}

	return nil
}

// reportTable generates a table report
func (r *Reporter) reportTable(result *scanner.Result) error {
	w := r.writer
	const sizeW, catW, timeW = 10, 16, 16
	pathW := r.width - sizeW - catW - timeW - 9
	if pathW < minPathWidth {
		pathW = minPathWidth
	}
	rule := strings.Repeat("─", pathW+sizeW+catW+timeW+9)

	fmt.Fprintf(w, "%-*s | %*s | %-*s | %s\n", pathW, "Path", sizeW, "Size", catW, "Category", "Modified")
	fmt.Fprintln(w, rule)

	for _, item := range result.Items {
		fmt.Fprintf(w, "%-*s | %*s | %-*s | %s\n",
			pathW, utils.TruncatePath(item.Path, pathW),
			sizeW, utils.FormatBytes(item.Size),
			catW, item.Category,
			item.ModTime.Format(timeLayout))
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total: %d items, %s\n", len(result.Items), utils.FormatBytes(result.TotalSize))
	if result.Truncated {
		fmt.Fprintf(w, "(truncated at %d items)\n", result.Settings.MaxResults)
	}
	return nil
}

type scanDocument struct {
	Timestamp          string          `json:"timestamp" yaml:"timestamp"`
	TotalItems         int             `json:"total_items" yaml:"total_items"`
	TotalSize          int64           `json:"total_size" yaml:"total_size"`
	TotalSizeFormatted string          `json:"total_size_formatted" yaml:"total_size_formatted"`
	DurationSeconds    float64         `json:"scan_duration_seconds" yaml:"scan_duration_seconds"`
	Result             *scanner.Result `json:"result" yaml:"result"`
}

func (r *Reporter) scanDocument(result *scanner.Result) scanDocument {
	return scanDocument{
		Timestamp:          r.now().Format(time.RFC3339),
		TotalItems:         len(result.Items),
		TotalSize:          result.TotalSize,
		TotalSizeFormatted: utils.FormatBytes(result.TotalSize),
		DurationSeconds:    result.Duration().Seconds(),
		Result:             result,
	}
}

func (r *Reporter) encodeJSON(v any) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (r *Reporter) encodeYAML(v any) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(v)
}

// CSVHeader is the column layout of CSV exports
var CSVHeader = []string{
	"timestamp",
	"category",
	"size_bytes",
	"size_human",
	"last_modified",
	"path",
	"recommended_action",
	"status",
}

// reportCSV writes one row per item. When a deletion report is given, the
// status column carries each item's outcome.
func (r *Reporter) reportCSV(result *scanner.Result, report *cleaner.Report) error {
	status := make(map[string]string)
	if report != nil {
		for _, o := range report.Outcomes {
			status[o.Path] = string(o.Status)
		}
	}

	cw := csv.NewWriter(r.writer)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	now := r.now().Format(time.RFC3339)
	for _, item := range result.Items {
		st, ok := status[item.Path]
		if !ok {
			st = "found"
		}
		row := []string{
			now,
			string(item.Category),
			strconv.FormatInt(item.Size, 10),
			utils.FormatBytes(item.Size),
			item.ModTime.Format(timeLayout),
			item.Path,
			item.Reason,
			st,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReportDeletion writes the outcome of a deletion or empty-trash call
func (r *Reporter) ReportDeletion(report *cleaner.Report) error {
	switch r.format {
	case FormatJSON:
		return r.encodeJSON(report)
	case FormatYAML:
		return r.encodeYAML(report)
	case FormatCSV:
		return r.deletionCSV(report)
	case FormatTable, FormatSummary:
		return r.deletionText(report)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) deletionText(report *cleaner.Report) error {
	w := r.writer
	pathW := r.width - 30
	if pathW < minPathWidth {
		pathW = minPathWidth
	}
	for _, o := range report.Outcomes {
		mark := "✓"
		if !o.Succeeded {
			mark = "✗"
		}
		fmt.Fprintf(w, " %s %-14s %s\n", mark, o.Status, utils.TruncatePath(o.Path, pathW))
		switch {
		case o.Location != "":
			fmt.Fprintf(w, "     → %s\n", o.Location)
		case o.Reason != "" && o.Err == nil:
			fmt.Fprintf(w, "     %s\n", o.Reason)
		}
	}
	fmt.Fprintf(w, "\n%s\n", report.Summary())
	return nil
}

func (r *Reporter) deletionCSV(report *cleaner.Report) error {
	cw := csv.NewWriter(r.writer)
	if err := cw.Write([]string{"path", "status", "size_bytes", "method", "location", "reason"}); err != nil {
		return err
	}
	for _, o := range report.Outcomes {
		row := []string{
			o.Path,
			string(o.Status),
			strconv.FormatInt(o.Size, 10),
			string(o.Method),
			o.Location,
			o.Reason,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveToFile saves the report to a file. A deletion report, when given,
// fills the CSV status column.
func SaveToFile(result *scanner.Result, report *cleaner.Report, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	rep := New(file, format, WithWidth(defaultWidth))
	if format == FormatCSV {
		if err := rep.reportCSV(result, report); err != nil {
			return err
		}
	} else if err := rep.Report(result); err != nil {
		return err
	}
	return file.Close()
}

// FormatDiskUsage describes free space on the volume holding a path
func FormatDiskUsage(u *platform.DiskUsage) string {
	if u == nil {
		return "disk usage unavailable"
	}
	return fmt.Sprintf("%s free of %s (%.0f%% used) on %s",
		utils.FormatBytes(int64(u.Free)),
		utils.FormatBytes(int64(u.Total)),
		u.UsedPercent,
		u.Path)
}

// FormatFreed compares disk usage before and after a cleanup
func FormatFreed(before, after *platform.DiskUsage) string {
	if before == nil || after == nil {
		return ""
	}
	delta := int64(after.Free) - int64(before.Free)
	if delta < 0 {
		delta = 0
	}
	return fmt.Sprintf("Free space: %s → %s (+%s)",
		utils.FormatBytes(int64(before.Free)),
		utils.FormatBytes(int64(after.Free)),
		utils.FormatBytes(delta))
}
