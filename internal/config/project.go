package config

import (
	"os"
	"path/filepath"
)

// ProjectOverlayName is the per-project config file merged over the global one.
const ProjectOverlayName = ".needle.yaml"

// FindProjectOverlay walks up from startDir looking for .needle.yaml and
// returns its absolute path, or "" when none exists. The walk stops at the
// user's home directory or the filesystem root.
func FindProjectOverlay(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	home, _ := os.UserHomeDir()

	for {
		candidate := filepath.Join(dir, ProjectOverlayName)
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate
		}
		if dir == home {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
