package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/internal/progress"
	"github.com/fenilsonani/safeclean/internal/scanner"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

const treeFilesPerDir = 5

// LiveProgress redraws a three line status block while a scan runs
type LiveProgress struct {
	mu          sync.Mutex
	w           io.Writer
	state       progress.ScanProgress
	category    config.Category
	lastUpdate  time.Time
	termWidth   int
	enabled     bool
	started     bool
	statusLines int
}

// NewLiveProgress creates a live progress display on w. It stays silent
// unless w is a terminal.
func NewLiveProgress(w io.Writer) *LiveProgress {
	width, enabled := 80, false
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		enabled = true
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			width = tw
		}
	}

	return &LiveProgress{
		w:           w,
		state:       progress.ScanProgress{Phase: progress.PhaseScanning, StartTime: time.Now()},
		termWidth:   width,
		enabled:     enabled,
		statusLines: 3,
	}
}

// Start reserves the status area
func (lp *LiveProgress) Start() {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	if !lp.enabled || lp.started {
		return
	}
	lp.started = true
	fmt.Fprint(lp.w, "\n\n\n")
	fmt.Fprintf(lp.w, "\033[%dA", lp.statusLines)
}

// Observe folds one scan event into the display
func (lp *LiveProgress) Observe(ev scanner.Event) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	switch ev.Kind {
	case scanner.EventItem:
		lp.state.ItemsFound++
		lp.state.TotalSize += ev.Item.Size
		lp.category = ev.Item.Category
	case scanner.EventProgress:
		lp.state.CurrentPath = ev.Path
		lp.state.Scanned = ev.Scanned
	case scanner.EventComplete:
		lp.state.Phase = progress.PhaseComplete
	}

	if !lp.enabled || !lp.started {
		return
	}

	// at most ten redraws a second
	now := time.Now()
	if now.Sub(lp.lastUpdate) < 100*time.Millisecond {
		return
	}
	lp.lastUpdate = now
	lp.render()
}

// Totals returns what has been observed so far
func (lp *LiveProgress) Totals() (items int, size int64) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.state.ItemsFound, lp.state.TotalSize
}

// Status is the one-line summary of the scan so far
func (lp *LiveProgress) Status() string {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return progress.FormatScanProgress(&lp.state)
}

func (lp *LiveProgress) render() {
	fmt.Fprint(lp.w, "\033[s")

	width := lp.termWidth - 2

	label := "-"
	if lp.category != "" {
		label = lp.category.Label()
	}
	line1 := fmt.Sprintf("📂 %-15s | %s", label, progress.FormatScanProgress(&lp.state))
	fmt.Fprintf(lp.w, "\033[K%s\n", truncate(line1, width))

	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := frames[int(time.Now().UnixMilli()/100)%len(frames)]
	path := lp.state.CurrentPath
	if width > 16 && len(path) > width-10 {
		path = "..." + path[len(path)-(width-13):]
	}
	fmt.Fprintf(lp.w, "\033[K%s\n", truncate(frame+" "+path, width))

	fmt.Fprintf(lp.w, "\033[K%s", strings.Repeat("─", max(width, 0)))

	fmt.Fprint(lp.w, "\033[u")
}

// Finish clears the status area
func (lp *LiveProgress) Finish() {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	if !lp.enabled || !lp.started {
		return
	}
	lp.started = false
	for i := 0; i < lp.statusLines; i++ {
		fmt.Fprint(lp.w, "\033[K\n")
	}
	fmt.Fprintf(lp.w, "\033[%dA", lp.statusLines)
}

func truncate(s string, width int) string {
	if width < 4 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

// PrintDetailedTree writes items grouped by category and then by parent
// folder. Only the first few entries of each folder are listed.
func PrintDetailedTree(w io.Writer, items []scanner.Item, totalSize int64) {
	byCat := make(map[config.Category][]scanner.Item)
	catSize := make(map[config.Category]int64)
	for _, it := range items {
		byCat[it.Category] = append(byCat[it.Category], it)
		catSize[it.Category] += it.Size
	}

	for _, cat := range config.AllCategories {
		catItems, ok := byCat[cat]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n╭─ %s (%s)\n", cat.Label(), utils.FormatBytes(catSize[cat]))

		dirs := make(map[string][]scanner.Item)
		for _, it := range catItems {
			dir := filepath.Dir(it.Path)
			dirs[dir] = append(dirs[dir], it)
		}
		names := make([]string, 0, len(dirs))
		for d := range dirs {
			names = append(names, d)
		}
		slices.Sort(names)

		for i, dir := range names {
			last := i == len(names)-1
			dirItems := dirs[dir]

			var dirSize int64
			for _, it := range dirItems {
				dirSize += it.Size
			}

			connector, indent := "├", "│   "
			if last {
				connector, indent = "╰", "    "
			}
			fmt.Fprintf(w, "%s── 📁 %s (%s)\n", connector, dir, utils.FormatBytes(dirSize))

			shown := min(len(dirItems), treeFilesPerDir)
			for j := 0; j < shown; j++ {
				it := dirItems[j]
				branch := "├"
				if j == shown-1 && len(dirItems) <= treeFilesPerDir {
					branch = "╰"
				}
				name := filepath.Base(it.Path)
				if it.IsDir {
					name += "/"
				}
				fmt.Fprintf(w, "%s%s── %s (%s)\n", indent, branch, name, utils.FormatBytes(it.Size))
			}
			if len(dirItems) > treeFilesPerDir {
				fmt.Fprintf(w, "%s╰── ... and %d more\n", indent, len(dirItems)-treeFilesPerDir)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("═", 56))
	fmt.Fprintf(w, "Total: %d items | %s\n", len(items), utils.FormatBytes(totalSize))
}
