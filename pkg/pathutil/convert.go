// Package pathutil provides path helpers for rendering source locations and
// naming output files.
//
// Source paths in traces come from the runtime that captured them, so they may
// use Windows or POSIX separators regardless of the platform rendering them.
package pathutil

import (
	"path/filepath"
	"strings"
)

// BaseName returns the last element of a source path, understanding both
// '/' and '\' as separators.
//
// Examples:
//   - BaseName("/home/dev/Game/Assets/Player.cs") → "Player.cs"
//   - BaseName(`C:\Projects\Game\Assets\Player.cs`) → "Player.cs"
//   - BaseName("Player.cs") → "Player.cs"
func BaseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/dumps/crash.trace.yaml", "/home/user/dumps") → "crash.trace.yaml"
//   - ToRelative("/other/location/crash.trace.yaml", "/home/user/dumps") → "/other/location/crash.trace.yaml" (outside root)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Conversion failed (e.g., different drives on Windows) - return absolute
		return absPath
	}

	// A path outside the root is clearer in absolute form
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// OutputPath returns the path a rendered trace is written to for a dump file
func OutputPath(dumpPath, suffix string) string {
	return dumpPath + suffix
}

// IsOutputPath reports whether path was produced by OutputPath with suffix
func IsOutputPath(path, suffix string) bool {
	return suffix != "" && strings.HasSuffix(path, suffix)
}
