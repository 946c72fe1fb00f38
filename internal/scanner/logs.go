package scanner

import (
	"fmt"
	"io/fs"

	"github.com/fenilsonani/safeclean/internal/config"
)

// scanLogs reports non-empty log files older than the cache age threshold.
func (r *run) scanLogs() {
	days := r.settings.OldCacheAgeDays
	r.walk(r.locations.Logs, func(info fs.FileInfo) (config.Category, string, bool) {
		if !info.Mode().IsRegular() || info.Size() == 0 {
			return "", "", false
		}
		if !r.olderThan(info, days) {
			return "", "", false
		}
		return config.CategoryLogs, fmt.Sprintf("Log not written in %d+ days; safe to remove", days), true
	})
}
