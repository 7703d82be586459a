package fileregistry

import (
	"path/filepath"
	"slices"
	"strings"
)

// skipDirs are directory names never descended into or chunked.
var skipDirs = []string{
	// Version control
	".git", ".svn", ".hg",

	// Dependencies and environments
	"vendor", "node_modules", "__pycache__", "venv", ".venv",

	// Build outputs
	"build", "dist", "target", "out", "bin",

	// IDE/Editor
	".vscode", ".idea", ".vs",
}

// skipExtensions are binary and media formats that never yield text.
var skipExtensions = map[string]bool{
	// Executables and libraries
	".exe": true, ".dll": true, ".so": true, ".dylib": true,

	// Images
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tiff": true, ".svg": true, ".ico": true,

	// Archives and compressed files
	".zip": true, ".tar": true, ".gz": true, ".rar": true,
	".7z": true, ".bz2": true, ".xz": true,

	// Media files
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
	".wav": true, ".flac": true, ".ogg": true,

	// Documents
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,

	// Other binary formats
	".bin": true, ".dat": true, ".db": true, ".sqlite": true,
}

// SkipDir reports whether a directory with this name is excluded.
func SkipDir(name string) bool {
	return slices.Contains(skipDirs, name)
}

// SkipExtension reports whether files with this extension are excluded.
func SkipExtension(ext string) bool {
	return skipExtensions[strings.ToLower(ext)]
}

// SkipPath reports whether a file path sits under an excluded directory or has
// an excluded extension.
func SkipPath(path string) bool {
	if SkipExtension(filepath.Ext(path)) {
		return true
	}
	dir := filepath.ToSlash(filepath.Dir(path))
	return slices.ContainsFunc(strings.Split(dir, "/"), SkipDir)
}
