package snapshot

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Checksum statuses reported by Verify.
const (
	StatusOK       = "ok"
	StatusMismatch = "mismatch"
	StatusMissing  = "missing"
)

// FileCheck is the verification result for one file listed in checksums.txt.
type FileCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ErrNoChecksums is returned by Verify when a snapshot has no checksums.txt,
// e.g. one written by another tool.
var ErrNoChecksums = errors.New("no " + ChecksumsFile)

// WriteChecksums hashes every file under dir (except checksums.txt itself)
// and writes "<sha256>  <relative/path>" lines in lexical order.
func WriteChecksums(dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == ChecksumsFile {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return err
	}

	out, err := os.Create(filepath.Join(dir, ChecksumsFile))
	if err != nil {
		return err
	}
	for _, name := range files {
		sum, err := sha256File(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			out.Close()
			return err
		}
		if _, err := fmt.Fprintf(out, "%s  %s\n", sum, name); err != nil {
			out.Close()
			return err
		}
	}
	return out.Close()
}

// Verify recomputes every checksum recorded for the snapshot in dir.
func Verify(dir string) ([]FileCheck, error) {
	f, err := os.Open(filepath.Join(dir, ChecksumsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoChecksums
		}
		return nil, err
	}
	defer f.Close()

	var checks []FileCheck
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "  ", 2)
		if len(parts) != 2 {
			checks = append(checks, FileCheck{Name: line, Status: StatusMismatch})
			continue
		}
		want, name := parts[0], parts[1]
		sum, err := sha256File(filepath.Join(dir, filepath.FromSlash(name)))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			checks = append(checks, FileCheck{Name: name, Status: StatusMissing})
		case err != nil:
			return nil, err
		case strings.EqualFold(want, sum):
			checks = append(checks, FileCheck{Name: name, Status: StatusOK})
		default:
			checks = append(checks, FileCheck{Name: name, Status: StatusMismatch})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return checks, nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
