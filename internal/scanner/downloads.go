package scanner

import (
	"fmt"
	"io/fs"

	"github.com/fenilsonani/safeclean/internal/config"
	"github.com/fenilsonani/safeclean/pkg/utils"
)

// scanDownloads walks the Downloads folder once for both large files and
// old downloads. A file that is both is reported as a large file.
func (r *run) scanDownloads() {
	cats := r.settings.Categories
	large := cats.Has(config.CategoryLargeFiles)
	old := cats.Has(config.CategoryOldDownloads)

	r.walk(r.locations.Downloads, func(info fs.FileInfo) (config.Category, string, bool) {
		if large && info.Size() >= r.settings.LargeFileThreshold {
			return config.CategoryLargeFiles, largeFileReason(info.Size()), true
		}
		if old && r.olderThan(info, r.settings.OldDownloadAgeDays) {
			return config.CategoryOldDownloads,
				fmt.Sprintf("Not modified in %d+ days; delete if no longer needed", r.settings.OldDownloadAgeDays),
				true
		}
		return "", "", false
	})
}

// scanExtraRoots searches the user's additional folders for large files.
func (r *run) scanExtraRoots() {
	for _, root := range r.settings.ExtraRoots {
		if r.stopped() {
			return
		}
		r.walk(root, func(info fs.FileInfo) (config.Category, string, bool) {
			if info.Size() >= r.settings.LargeFileThreshold {
				return config.CategoryLargeFiles, largeFileReason(info.Size()), true
			}
			return "", "", false
		})
	}
}

func largeFileReason(size int64) string {
	return fmt.Sprintf("Large file (%s); review, then archive or delete", utils.FormatBytes(size))
}
