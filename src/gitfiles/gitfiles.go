// Package gitfiles lists the files tracked by the project's version control.
package gitfiles

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Lister returns the paths considered tracked, relative to the working tree.
// Implementations never fail: any problem yields an empty list.
type Lister interface {
	TrackedFiles(ctx context.Context) []string
}

// Git lists files with `git ls-files`.
type Git struct {
	// Dir is the working tree to run git in; empty means the process cwd.
	Dir    string
	Logger hclog.Logger
}

// TrackedFiles runs `git ls-files -z` and splits its NUL-separated output.
func (g Git) TrackedFiles(ctx context.Context) []string {
	log := g.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	exe, err := exec.LookPath("git")
	if err != nil {
		log.Warn("git binary not found on PATH", "error", err)
		return nil
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Minute)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, exe, "ls-files", "-z")
	cmd.Dir = g.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		log.Warn("not in a git repository or git command failed",
			"error", err, "stderr", strings.TrimSpace(stderr.String()))
		return nil
	}
	return splitNUL(stdout.String())
}

// Static is a fixed file list.
type Static []string

func (s Static) TrackedFiles(context.Context) []string {
	return []string(s)
}

func splitNUL(out string) []string {
	var paths []string
	for _, p := range strings.Split(out, "\x00") {
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	return paths
}
