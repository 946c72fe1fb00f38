package platform

import "path/filepath"

// getLinuxInfo returns platform-specific information for Linux. XDG
// variables are honoured when set.
func getLinuxInfo(homeDir, username string, getenv func(string) string) *Info {
	cacheDir := filepath.Join(homeDir, ".cache")
	if xdg := getenv("XDG_CACHE_HOME"); filepath.IsAbs(xdg) {
		cacheDir = xdg
	}

	dataDir := filepath.Join(homeDir, ".local", "share")
	if xdg := getenv("XDG_DATA_HOME"); filepath.IsAbs(xdg) {
		dataDir = xdg
	}

	downloads := filepath.Join(homeDir, "Downloads")
	if xdg := getenv("XDG_DOWNLOAD_DIR"); filepath.IsAbs(xdg) {
		downloads = xdg
	}

	return &Info{
		OS:       Linux,
		HomeDir:  homeDir,
		Username: username,
		Locations: Locations{
			Home:      homeDir,
			Downloads: downloads,
			Caches:    cacheDir,
			Logs:      filepath.Join(dataDir, "logs"),
			Trash:     filepath.Join(dataDir, "Trash", "files"),
			TrashInfo: filepath.Join(dataDir, "Trash", "info"),
			AppData:   appDataDir(homeDir),
		},
	}
}
