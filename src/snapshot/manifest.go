package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Manifest records what a snapshot directory contains and when it was made.
type Manifest struct {
	Timestamp   string   `json:"timestamp"`
	CreatedAt   string   `json:"created_at"`
	BackupType  string   `json:"backup_type"`
	Collections []string `json:"collections"`
}

// NewManifest builds a full-backup manifest.
func NewManifest(stamp, createdAt time.Time, collections []string) Manifest {
	cols := make([]string, len(collections))
	copy(cols, collections)
	return Manifest{
		Timestamp:   FormatTimestamp(stamp),
		CreatedAt:   createdAt.Format(createdAtLayout),
		BackupType:  BackupTypeFull,
		Collections: cols,
	}
}

// ReadManifest loads backup_info.json from dir. A missing manifest yields an
// error matching fs.ErrNotExist.
func ReadManifest(dir string) (*Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	return &m, nil
}

// WriteManifest writes backup_info.json into dir.
func WriteManifest(dir string, m Manifest) error {
	if m.Collections == nil {
		m.Collections = []string{}
	}
	return writeJSON(filepath.Join(dir, ManifestFile), m)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
