package config

import "github.com/fenilsonani/safeclean/pkg/utils"

// GetDefault returns the default configuration
func GetDefault() *Config {
	d := DefaultSettings()
	categories := make([]string, 0, len(AllCategories))
	for _, c := range d.Categories.List() {
		categories = append(categories, string(c))
	}

	return &Config{
		Scan: ScanConfig{
			LargeFileThreshold:   utils.FormatBytes(d.LargeFileThreshold), // "1.0 GiB"
			OldDownloadAgeDays:   d.OldDownloadAgeDays,
			OldCacheAgeDays:      d.OldCacheAgeDays,
			MaxResults:           d.MaxResults,
			IncludeHidden:        d.IncludeHidden,
			FollowSymlinks:       d.FollowSymlinks,
			DryRun:               d.DryRun, // never delete on a fresh install
			AllowPersonalFolders: d.AllowPersonalFolders,
			Categories:           categories,
			ExtraRoots:           []string{},
		},
		Safety: SafetyConfig{
			// Added on top of the built-in tables
			BlockedPaths:  []string{},
			PersonalPaths: []string{},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
