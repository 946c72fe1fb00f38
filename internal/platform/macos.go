package platform

import "path/filepath"

// getMacOSInfo returns platform-specific information for macOS
func getMacOSInfo(homeDir, username string) *Info {
	return &Info{
		OS:       MacOS,
		HomeDir:  homeDir,
		Username: username,
		Locations: Locations{
			Home:      homeDir,
			Downloads: filepath.Join(homeDir, "Downloads"),
			Caches:    filepath.Join(homeDir, "Library", "Caches"),
			Logs:      filepath.Join(homeDir, "Library", "Logs"),
			Trash:     filepath.Join(homeDir, ".Trash"),
			AppData:   appDataDir(homeDir),
		},
	}
}
