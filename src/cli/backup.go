package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"docsnap/src/snapshot"
)

func newBackupCmd(stdout, stderr io.Writer, env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up collections and tracked code files into a new snapshot directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, stderr)
			if err != nil {
				return err
			}
			workDir, err := resolveWorkDir(env)
			if err != nil {
				return err
			}
			stamp := env.Now()
			dir := filepath.Join(s.root.DirPath, snapshot.DirName(stamp))

			fmt.Fprintln(stdout, titleStyle.Render("==> creating backup in: "+dir))
			if s.opts.DryRun {
				fmt.Fprintf(stdout, "  %s %s\n", labelStyle.Render("collections:"), strings.Join(s.cfg.Collections, ", "))
				fmt.Fprintln(stdout, dimStyle.Render("  dry run: nothing written"))
				return nil
			}

			w := &snapshot.Writer{
				Open:        env.Open(s.cfg),
				Files:       env.Files(workDir, s.log.Named("gitfiles")),
				Collections: s.cfg.Collections,
				SourceDir:   workDir,
				Logger:      s.log.Named("snapshot"),
				Now:         env.Now,
			}
			rep, err := w.Write(cmd.Context(), dir, stamp)
			if err != nil {
				return err
			}
			renderBackupReport(stdout, rep)
			return nil
		},
	}
	cmd.Flags().StringSlice("collection", nil, "Collection to back up (repeatable; default: config collections)")
	return cmd
}

func renderBackupReport(w io.Writer, rep *snapshot.BackupReport) {
	fmt.Fprintln(w)
	for _, c := range rep.Collections {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(c.Name+":"), valueStyle.Render(fmt.Sprintf("%d documents", c.Documents)))
	}
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("code files:"),
		valueStyle.Render(fmt.Sprintf("%d (%s)", rep.Code.Files, humanize.Bytes(uint64(rep.Code.Bytes)))))
	if rep.Code.Skipped > 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  skipped %d tracked paths not present on disk", rep.Code.Skipped)))
	}
	fmt.Fprintln(w)
	if rep.DataErr != nil {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("[warn] error backing up database: %v", rep.DataErr)))
		fmt.Fprintln(w, warnStyle.Render("[warn] backup completed with warnings (code only) in: "+rep.Dir))
		return
	}
	fmt.Fprintln(w, successStyle.Render("[done] backup completed successfully in: "+rep.Dir))
}

func resolveWorkDir(env Env) (string, error) {
	if env.WorkDir != "" {
		return env.WorkDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return wd, nil
}
