package patcher

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Paths are the filesystem locations the pipeline touches.
type Paths struct {
	// Target is the live bundle
	Target string `yaml:"target"`

	// ScratchRoot holds per-invocation workspaces, the lock and the build output
	ScratchRoot string `yaml:"scratch_root"`

	// Backup is the single-slot backup of the previously live bundle
	Backup string `yaml:"backup"`

	// BuildPath is where the patched bundle is assembled before the swap
	BuildPath string `yaml:"build_path"`

	// Executable is relaunched after a successful patch
	Executable string `yaml:"executable"`
}

// DefaultPaths resolves the standard locations from the platform's
// application-data and temp directories.
func DefaultPaths() (Paths, error) {
	appData, err := appDataDir()
	if err != nil {
		return Paths{}, err
	}
	return PathsFor(appData, os.TempDir()), nil
}

// PathsFor lays out the standard locations under the given application-data
// and temp directories.
func PathsFor(appData, tempDir string) Paths {
	scratch := filepath.Join(tempDir, ToolName)
	return Paths{
		Target:      filepath.Join(appData, AppName, "Apps", BundleName+BundleExt),
		ScratchRoot: scratch,
		Backup:      filepath.Join(scratch, BackupName),
		BuildPath:   filepath.Join(scratch, BundleName+BundleExt),
		Executable:  filepath.Join(appData, AppName, executableName()),
	}
}

// appDataDir returns the per-user application data directory
// (%AppData% on Windows).
func appDataDir() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get application data directory: %w", err)
	}
	return dir, nil
}

func executableName() string {
	switch runtime.GOOS {
	case "windows":
		return "Spotify.exe"
	case "darwin":
		return "Spotify"
	default:
		return "spotify"
	}
}

// withScratchRoot moves the scratch root and the paths derived from it.
func (p Paths) withScratchRoot(root string) Paths {
	p.ScratchRoot = root
	p.Backup = filepath.Join(root, BackupName)
	p.BuildPath = filepath.Join(root, BundleName+BundleExt)
	return p
}
