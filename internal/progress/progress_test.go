package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporterFanOut(t *testing.T) {
	pr := NewReporter()
	a := pr.Subscribe()
	b := pr.Subscribe()

	update := &CleanProgress{Phase: PhaseCleaning, Processed: 1, Total: 3}
	pr.Update(update)

	assert.Same(t, update, <-a)
	assert.Same(t, update, <-b)
	assert.Same(t, update, pr.Current())
}

func TestReporterSlowListenerDoesNotBlock(t *testing.T) {
	pr := NewReporter()
	ch := pr.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := range 100 {
			pr.Update(&CleanProgress{Processed: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Update blocked on a full listener")
	}
	assert.Len(t, ch, cap(ch))
}

func TestReporterUnsubscribe(t *testing.T) {
	pr := NewReporter()
	ch := pr.Subscribe()
	pr.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)
	pr.Update(&CleanProgress{})
}

func TestFormatCleanProgress(t *testing.T) {
	p := &CleanProgress{Phase: PhaseCleaning, Processed: 1, Total: 4, FreedSize: 2048, StartTime: time.Now()}
	assert.Contains(t, FormatCleanProgress(p), "1/4 (25%)")
	assert.Contains(t, FormatCleanProgress(p), "Moving to trash")

	p.DryRun = true
	assert.Contains(t, FormatCleanProgress(p), "dry run")

	p.Phase = PhaseComplete
	p.Succeeded = 3
	p.Failed = 1
	assert.Contains(t, FormatCleanProgress(p), "3 succeeded, 1 failed")

	require.Equal(t, "Preparing...", FormatCleanProgress(nil))
}

func TestFormatScanProgress(t *testing.T) {
	p := &ScanProgress{Phase: PhaseScanning, Scanned: 120, ItemsFound: 4, TotalSize: 1 << 20, StartTime: time.Now()}
	assert.Contains(t, FormatScanProgress(p), "120 entries checked, 4 items (1.0 MiB)")
	assert.Equal(t, "Initializing...", FormatScanProgress(nil))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", FormatDuration(5*time.Second))
	assert.Equal(t, "2m3s", FormatDuration(2*time.Minute+3*time.Second))
	assert.Equal(t, "1h0m1s", FormatDuration(time.Hour+time.Second))
}
