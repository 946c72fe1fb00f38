package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/safeclean/pkg/utils"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseCleaning Phase = "cleaning"
	PhaseComplete Phase = "complete"
	PhaseError    Phase = "error"
)

// ScanProgress represents progress during scanning
type ScanProgress struct {
	Phase       Phase
	CurrentPath string
	Scanned     int
	ItemsFound  int
	TotalSize   int64
	StartTime   time.Time
	Error       error
}

// CleanProgress represents progress during deletion
type CleanProgress struct {
	Phase       Phase
	CurrentPath string
	Processed   int
	Total       int
	Succeeded   int
	Failed      int
	FreedSize   int64
	DryRun      bool
	StartTime   time.Time
	Error       error
}

// Reporter fans deletion progress out to any number of listeners. Slow
// listeners miss updates rather than stall the deletion.
type Reporter struct {
	cleanProgress *CleanProgress
	mu            sync.RWMutex
	listeners     []chan *CleanProgress
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{}
}

// Subscribe returns a channel that receives progress updates
func (pr *Reporter) Subscribe() <-chan *CleanProgress {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	ch := make(chan *CleanProgress, 10)
	pr.listeners = append(pr.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (pr *Reporter) Unsubscribe(ch <-chan *CleanProgress) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	for i, listener := range pr.listeners {
		if listener == ch {
			close(listener)
			pr.listeners = append(pr.listeners[:i], pr.listeners[i+1:]...)
			return
		}
	}
}

// Update records progress and notifies listeners
func (pr *Reporter) Update(update *CleanProgress) {
	pr.mu.Lock()
	pr.cleanProgress = update
	listeners := make([]chan *CleanProgress, len(pr.listeners))
	copy(listeners, pr.listeners)
	pr.mu.Unlock()

	for _, listener := range listeners {
		select {
		case listener <- update:
		default:
			// Skip if channel is full
		}
	}
}

// Current returns the latest progress, or nil before the first update
func (pr *Reporter) Current() *CleanProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.cleanProgress
}

// FormatScanProgress returns a human-readable scan progress string
func FormatScanProgress(p *ScanProgress) string {
	if p == nil {
		return "Initializing..."
	}

	elapsed := time.Since(p.StartTime)

	switch p.Phase {
	case PhaseScanning:
		return fmt.Sprintf("Scanning... %d entries checked, %d items (%s) [%s]",
			p.Scanned,
			p.ItemsFound,
			utils.FormatBytes(p.TotalSize),
			FormatDuration(elapsed))
	case PhaseComplete:
		return fmt.Sprintf("Scan complete: %d items (%s) in %s",
			p.ItemsFound,
			utils.FormatBytes(p.TotalSize),
			FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Scan error: %v", p.Error)
	default:
		return "Scanning..."
	}
}

// FormatCleanProgress returns a human-readable deletion progress string
func FormatCleanProgress(p *CleanProgress) string {
	if p == nil {
		return "Preparing..."
	}

	elapsed := time.Since(p.StartTime)
	verb := "Moving to trash"
	if p.DryRun {
		verb = "Checking (dry run)"
	}

	switch p.Phase {
	case PhaseCleaning:
		percentage := 0
		if p.Total > 0 {
			percentage = (p.Processed * 100) / p.Total
		}

		eta := ""
		if p.Processed > 0 && p.Total > p.Processed {
			avgTime := elapsed / time.Duration(p.Processed)
			remaining := time.Duration(p.Total-p.Processed) * avgTime
			eta = fmt.Sprintf(" ETA: %s", FormatDuration(remaining))
		}

		return fmt.Sprintf("%s... %d/%d (%d%%) - %s%s",
			verb,
			p.Processed,
			p.Total,
			percentage,
			utils.FormatBytes(p.FreedSize),
			eta)
	case PhaseComplete:
		return fmt.Sprintf("Done: %d succeeded, %d failed (%s) in %s",
			p.Succeeded,
			p.Failed,
			utils.FormatBytes(p.FreedSize),
			FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Cleanup error: %v", p.Error)
	default:
		return "Preparing cleanup..."
	}
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
