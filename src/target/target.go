package target

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Target is a parsed snapshot root. Example: dir:/mnt/nas/backups
type Target struct {
	// Raw is the original input string.
	Raw string
	// Scheme is the backend scheme; only "dir" exists.
	Scheme string
	// DirPath is the cleaned absolute directory path.
	DirPath string
}

// SupportedSchemes lists the schemes the parser accepts.
var SupportedSchemes = map[string]struct{}{
	"dir": {},
}

// Parse accepts "dir:<path>" or a bare path. A prefix before ':' that is not
// a supported scheme is part of the path. Relative paths are resolved against
// the working directory.
func Parse(raw string) (Target, error) {
	t := Target{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return t, fmt.Errorf("target must not be empty; expected 'dir:/path' or a path")
	}
	val := s
	if i := strings.Index(s, ":"); i > 0 {
		if _, ok := SupportedSchemes[strings.ToLower(s[:i])]; ok {
			val = strings.TrimSpace(s[i+1:])
		}
	}
	if val == "" {
		return t, fmt.Errorf("directory target path must not be empty")
	}
	abs, err := filepath.Abs(val)
	if err != nil {
		return t, fmt.Errorf("resolve %q: %w", val, err)
	}
	t.Scheme = "dir"
	t.DirPath = abs
	return t, nil
}

// String returns the canonical form of the target.
func (t Target) String() string {
	if t.DirPath != "" {
		return t.Scheme + ":" + t.DirPath
	}
	return t.Raw
}
