package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Category identifies a kind of reclaimable space.
type Category string

const (
	CategoryLargeFiles   Category = "large_files"
	CategoryCaches       Category = "caches"
	CategoryOldDownloads Category = "old_downloads"
	CategoryLogs         Category = "logs"
	CategoryTrashReport  Category = "trash_report"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryLargeFiles,
	CategoryCaches,
	CategoryOldDownloads,
	CategoryLogs,
	CategoryTrashReport,
}

func (c Category) bit() CategorySet {
	switch c {
	case CategoryLargeFiles:
		return 1 << 0
	case CategoryCaches:
		return 1 << 1
	case CategoryOldDownloads:
		return 1 << 2
	case CategoryLogs:
		return 1 << 3
	case CategoryTrashReport:
		return 1 << 4
	}
	return 0
}

// Label returns the human-facing name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryLargeFiles:
		return "Large Files"
	case CategoryCaches:
		return "Caches"
	case CategoryOldDownloads:
		return "Old Downloads"
	case CategoryLogs:
		return "Logs"
	case CategoryTrashReport:
		return "Trash"
	}
	return string(c)
}

// ParseCategory accepts the canonical name or a few aliases ("large", "trash").
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "large_files", "large-files", "large":
		return CategoryLargeFiles, nil
	case "caches", "cache":
		return CategoryCaches, nil
	case "old_downloads", "old-downloads", "downloads":
		return CategoryOldDownloads, nil
	case "logs", "log":
		return CategoryLogs, nil
	case "trash_report", "trash-report", "trash":
		return CategoryTrashReport, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// CategorySet is a small value-type set of categories.
type CategorySet uint8

// AllCategorySet contains every category.
func AllCategorySet() CategorySet {
	return NewCategorySet(AllCategories...)
}

// NewCategorySet builds a set from the given categories.
func NewCategorySet(cats ...Category) CategorySet {
	var s CategorySet
	for _, c := range cats {
		s = s.With(c)
	}
	return s
}

// ParseCategorySet parses a comma separated category list.
func ParseCategorySet(list string) (CategorySet, error) {
	var s CategorySet
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(part), "all") {
			return AllCategorySet(), nil
		}
		c, err := ParseCategory(part)
		if err != nil {
			return 0, err
		}
		s = s.With(c)
	}
	return s, nil
}

func (s CategorySet) Has(c Category) bool         { return s&c.bit() != 0 }
func (s CategorySet) With(c Category) CategorySet { return s | c.bit() }
func (s CategorySet) Empty() bool { return s&AllCategorySet() == 0 }

// List returns the members in display order.
func (s CategorySet) List() []Category {
	var out []Category
	for _, c := range AllCategories {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s CategorySet) String() string {
	parts := make([]string, 0, len(AllCategories))
	for _, c := range s.List() {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ",")
}

func (s CategorySet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CategorySet) UnmarshalText(text []byte) error {
	parsed, err := ParseCategorySet(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ErrInvalidSettings is matched by every settings validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// ValidationError reports a single invalid settings field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSettings
}

// Settings controls one scan run. Values are copied into the scanner at
// start, so later edits by the caller never affect a running scan.
type Settings struct {
	LargeFileThreshold   int64       `json:"large_file_threshold" yaml:"large_file_threshold"`
	OldDownloadAgeDays   int         `json:"old_download_age_days" yaml:"old_download_age_days"`
	OldCacheAgeDays      int         `json:"old_cache_age_days" yaml:"old_cache_age_days"`
	MaxResults           int         `json:"max_results" yaml:"max_results"`
	IncludeHidden        bool        `json:"include_hidden" yaml:"include_hidden"`
	FollowSymlinks       bool        `json:"follow_symlinks" yaml:"follow_symlinks"`
	DryRun               bool        `json:"dry_run" yaml:"dry_run"`
	AllowPersonalFolders bool        `json:"allow_personal_folders" yaml:"allow_personal_folders"`
	Categories           CategorySet `json:"categories" yaml:"categories"`
	ExtraRoots           []string    `json:"extra_roots,omitempty" yaml:"extra_roots,omitempty"`
}

// DefaultSettings returns the conservative defaults: dry run on, personal
// folders excluded, every category enabled.
func DefaultSettings() Settings {
	return Settings{
		LargeFileThreshold: 1 << 30,
		OldDownloadAgeDays: 90,
		OldCacheAgeDays:    30,
		MaxResults:         500,
		DryRun:             true,
		Categories:         AllCategorySet(),
	}
}

// Validate checks every field and returns the first problem found.
func (s Settings) Validate() error {
	if s.LargeFileThreshold <= 0 {
		return &ValidationError{Field: "large_file_threshold", Message: "must be greater than zero"}
	}
	if s.OldDownloadAgeDays < 0 {
		return &ValidationError{Field: "old_download_age_days", Message: "must be >= 0"}
	}
	if s.OldCacheAgeDays < 0 {
		return &ValidationError{Field: "old_cache_age_days", Message: "must be >= 0"}
	}
	if s.MaxResults <= 0 {
		return &ValidationError{Field: "max_results", Message: "must be greater than zero"}
	}
	if s.Categories.Empty() {
		return &ValidationError{Field: "categories", Message: "at least one category must be enabled"}
	}
	for _, root := range s.ExtraRoots {
		if !filepath.IsAbs(root) {
			return &ValidationError{Field: "extra_roots", Message: fmt.Sprintf("path must be absolute: %s", root)}
		}
	}
	return nil
}

// Snapshot returns a deep copy.
func (s Settings) Snapshot() Settings {
	s.ExtraRoots = slices.Clone(s.ExtraRoots)
	return s
}
