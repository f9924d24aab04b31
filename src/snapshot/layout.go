// Package snapshot writes and reads snapshot directories:
//
//	backup_<YYYYMMDD_HHMMSS>/
//	  backup_info.json         manifest
//	  <collection>.json        one per backed-up collection
//	  code/<relative/path...>  mirrored tracked files
//	  checksums.txt            sha256 of every file above
package snapshot

import (
	"errors"
	"strings"
	"time"
)

const (
	// DirPrefix starts the name of every snapshot directory.
	DirPrefix = "backup_"
	// ManifestFile is the manifest name at the root of a snapshot directory.
	ManifestFile = "backup_info.json"
	// CodeDir holds the mirrored tracked files.
	CodeDir = "code"
	// ChecksumsFile lists the sha256 of every other file in the snapshot.
	ChecksumsFile = "checksums.txt"
	// BackupTypeFull is the only backup type written.
	BackupTypeFull = "full"

	timestampLayout = "20060102_150405"
	createdAtLayout = "2006-01-02T15:04:05.000000"
)

// DefaultCollections is the backup scope used when nothing is configured.
var DefaultCollections = []string{"users", "templates", "executionPlans", "categories"}

// ErrNotSnapshot is returned when a path is not a snapshot directory.
var ErrNotSnapshot = errors.New("not a snapshot directory")

// FormatTimestamp renders the capture time used in directory names and manifests.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// DirName returns the snapshot directory name for a capture time.
func DirName(t time.Time) string {
	return DirPrefix + FormatTimestamp(t)
}

// ParseDirName extracts the capture time (local zone) from a directory name.
func ParseDirName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, DirPrefix) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(timestampLayout, strings.TrimPrefix(name, DirPrefix), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ValidCollectionName reports whether name can be stored as <name>.json
// directly under the snapshot directory.
func ValidCollectionName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return name+".json" != ManifestFile
}
