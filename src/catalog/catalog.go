// Package catalog discovers snapshot directories under a root directory.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docsnap/src/snapshot"
)

// Entry is one snapshot directory found under the root.
type Entry struct {
	Name string `json:"name"`
	// Path is the snapshot directory joined onto the root.
	Path string `json:"path"`
	// Manifest is nil when the directory has no readable manifest.
	Manifest *snapshot.Manifest `json:"manifest,omitempty"`
}

// CreatedAt returns the manifest's creation time, or "" without a manifest.
func (e Entry) CreatedAt() string {
	if e.Manifest == nil {
		return ""
	}
	return e.Manifest.CreatedAt
}

// Label renders the entry the way selection prompts show it.
func (e Entry) Label() string {
	if e.Manifest == nil {
		return e.Name
	}
	created := e.CreatedAt()
	if created == "" {
		created = "Unknown"
	}
	return fmt.Sprintf("%s (Created: %s)", e.Name, created)
}

// List returns every directory in root whose name starts with "backup_",
// sorted by name (which is also chronological).
func List(root string) ([]Entry, error) {
	if root == "" {
		return nil, errors.New("catalog root must not be empty")
	}
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read root: %w", err)
	}
	var entries []Entry
	for _, d := range dirEntries {
		name := d.Name()
		if !strings.HasPrefix(name, snapshot.DirPrefix) {
			continue
		}
		full := filepath.Join(root, name)
		if !isDir(d, full) {
			continue
		}
		e := Entry{Name: name, Path: full}
		if mf, err := snapshot.ReadManifest(full); err == nil {
			e.Manifest = mf
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Latest returns the newest snapshot under root.
func Latest(root string) (Entry, error) {
	entries, err := List(root)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("no backup directories found under %s", root)
	}
	return entries[len(entries)-1], nil
}

// isDir follows symlinks so a linked snapshot directory is still listed.
func isDir(d os.DirEntry, full string) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.IsDir()
}
