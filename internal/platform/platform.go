package platform

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Locations are the folders the scanner and the trash facility work with.
type Locations struct {
	Home      string
	Downloads string
	Caches    string
	Logs      string
	// Trash is where trashed entries live; TrashInfo, when set, holds the
	// freedesktop .trashinfo records that pair with them.
	Trash     string
	TrashInfo string
	// AppData holds the config file and the operational log.
	AppData string
}

// Info contains platform-specific information and paths
type Info struct {
	OS        Platform
	HomeDir   string
	Username  string
	Locations Locations
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information
func GetInfo() (*Info, error) {
	platform := Detect()

	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}

	homeDir := currentUser.HomeDir
	if env := os.Getenv("HOME"); env != "" {
		homeDir = env
	}

	var info *Info
	switch platform {
	case MacOS:
		info = getMacOSInfo(homeDir, currentUser.Username)
	case Linux:
		info = getLinuxInfo(homeDir, currentUser.Username, os.Getenv)
	default:
		return nil, ErrUnsupportedPlatform
	}

	return info, nil
}

func appDataDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", "safeclean")
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
