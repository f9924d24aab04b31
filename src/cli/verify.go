package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"docsnap/src/catalog"
	"docsnap/src/snapshot"
)

const statusNoChecksums = "no checksums"

type verifyResult struct {
	Name   string               `json:"name"`
	Path   string               `json:"path"`
	Status string               `json:"status"`
	Files  []snapshot.FileCheck `json:"files,omitempty"`
}

func newVerifyCmd(stdout, stderr io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "verify [backup-dir]",
		Short: "Verify checksums of one snapshot or every snapshot in the target",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, stderr)
			if err != nil {
				return err
			}
			var dirs []string
			if len(args) == 1 {
				if err := snapshot.CheckDir(args[0]); err != nil {
					return err
				}
				dirs = []string{args[0]}
			} else {
				entries, err := catalog.List(s.root.DirPath)
				if err != nil {
					return err
				}
				for _, e := range entries {
					dirs = append(dirs, e.Path)
				}
			}

			results, failed, err := runVerify(dirs)
			if err != nil {
				return err
			}
			switch output {
			case "json":
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			case "table", "":
				renderVerify(stdout, results)
			default:
				return fmt.Errorf("unsupported --output: %s", output)
			}
			if failed > 0 {
				return fmt.Errorf("%d snapshot(s) failed verification", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}

func runVerify(dirs []string) ([]verifyResult, int, error) {
	results := make([]verifyResult, 0, len(dirs))
	failed := 0
	for _, dir := range dirs {
		r := verifyResult{Name: filepath.Base(dir), Path: dir, Status: snapshot.StatusOK}
		checks, err := snapshot.Verify(dir)
		switch {
		case errors.Is(err, snapshot.ErrNoChecksums):
			r.Status = statusNoChecksums
		case err != nil:
			return nil, 0, fmt.Errorf("verify %s: %w", dir, err)
		}
		r.Files = checks
		for _, c := range checks {
			if c.Status != snapshot.StatusOK {
				r.Status = snapshot.StatusMismatch
			}
		}
		if r.Status == snapshot.StatusMismatch {
			failed++
		}
		results = append(results, r)
	}
	return results, failed, nil
}

func renderVerify(w io.Writer, results []verifyResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no backup directories found"))
		return
	}
	for _, r := range results {
		switch r.Status {
		case snapshot.StatusOK:
			fmt.Fprintf(w, "%s %s %s\n", successStyle.Render("[ok]"), r.Name, dimStyle.Render(fmt.Sprintf("(%d files)", len(r.Files))))
		case statusNoChecksums:
			fmt.Fprintf(w, "%s %s %s\n", warnStyle.Render("[skip]"), r.Name, dimStyle.Render("(no "+snapshot.ChecksumsFile+")"))
		default:
			fmt.Fprintf(w, "%s %s\n", errorStyle.Render("[fail]"), r.Name)
			for _, f := range r.Files {
				if f.Status != snapshot.StatusOK {
					fmt.Fprintf(w, "  - %s: %s\n", f.Name, f.Status)
				}
			}
		}
	}
}
