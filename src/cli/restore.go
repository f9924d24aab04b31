package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"docsnap/src/catalog"
	"docsnap/src/safety"
	"docsnap/src/snapshot"
)

var errRestoreCancelled = errors.New("restoration cancelled")

func newRestoreCmd(stdout, stderr io.Writer, env Env) *cobra.Command {
	var latest bool
	cmd := &cobra.Command{
		Use:   "restore [backup-dir]",
		Short: "Restore collections and code files from a snapshot directory",
		Long: "Restore wipes every collection named by the snapshot and rewrites it from the\n" +
			"stored documents, then overwrites working tree files with the snapshot's code/.\n" +
			"Without an argument the available snapshots are listed for selection;\n" +
			"--latest picks the newest one instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, stderr)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			prompt := safety.NewPrompter(env.Stdin, stdout, s.opts)

			var dir string
			switch {
			case len(args) == 1 && latest:
				return errors.New("--latest cannot be combined with a backup directory")
			case len(args) == 1:
				dir = args[0]
				if err := snapshot.CheckDir(dir); err != nil {
					return fmt.Errorf("backup directory '%s' not found", dir)
				}
			case latest:
				e, err := catalog.Latest(s.root.DirPath)
				if err != nil {
					return err
				}
				dir = e.Path
			default:
				dir, err = selectSnapshot(cmd, stdout, prompt, s.root.DirPath)
				if err != nil {
					return err
				}
			}

			fmt.Fprintln(stdout, titleStyle.Render("==> restoring from: "+dir))
			if s.opts.DryRun {
				plan, err := snapshot.PlanRestore(dir)
				if err != nil {
					return err
				}
				renderRestorePlan(stdout, plan)
				return nil
			}

			ok, err := prompt.Confirm(ctx, "This will overwrite existing data. Continue?")
			if err != nil {
				return err
			}
			if !ok {
				return errRestoreCancelled
			}

			workDir, err := resolveWorkDir(env)
			if err != nil {
				return err
			}
			r := &snapshot.Reader{
				Open:      env.Open(s.cfg),
				TargetDir: workDir,
				Logger:    s.log.Named("snapshot"),
			}
			rep, err := r.Restore(ctx, dir)
			if err != nil {
				return err
			}
			renderRestoreReport(stdout, rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "Restore the newest snapshot without listing")
	return cmd
}

// selectSnapshot lists the catalog and asks for a numeric choice.
func selectSnapshot(cmd *cobra.Command, stdout io.Writer, prompt *safety.Prompter, root string) (string, error) {
	entries, err := catalog.List(root)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no backup directories found")
	}
	fmt.Fprintln(stdout, titleStyle.Render("Available backups:"))
	for i, e := range entries {
		fmt.Fprintf(stdout, "  %d. %s\n", i+1, e.Label())
	}
	fmt.Fprintln(stdout)
	idx, err := prompt.Select(cmd.Context(), "Select backup to restore (number):", len(entries))
	if err != nil {
		return "", err
	}
	return entries[idx].Path, nil
}

func renderRestorePlan(w io.Writer, p *snapshot.Plan) {
	source := "manifest"
	if !p.FromManifest {
		source = "json files"
	}
	fmt.Fprintf(w, "  %s %s %s\n", labelStyle.Render("collections:"), strings.Join(p.Collections, ", "), dimStyle.Render("(from "+source+")"))
	for _, m := range p.Missing {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  [warn] %s.json not found, would skip", m)))
	}
	for _, m := range p.Invalid {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  [warn] invalid collection name %q, would skip", m)))
	}
	fmt.Fprintf(w, "  %s %d\n", labelStyle.Render("code files:"), p.CodeFiles)
	fmt.Fprintln(w, dimStyle.Render("  dry run: nothing changed"))
}

func renderRestoreReport(w io.Writer, rep *snapshot.RestoreReport) {
	fmt.Fprintln(w)
	for _, c := range rep.Collections {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(c.Name+":"),
			valueStyle.Render(fmt.Sprintf("%d documents (%d replaced)", c.Documents, c.Deleted)))
	}
	for _, name := range rep.Skipped {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  [warn] %s.json not found, skipped", name)))
	}
	for _, name := range rep.Invalid {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  [warn] invalid collection name %q, skipped", name)))
	}
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("code files:"),
		valueStyle.Render(fmt.Sprintf("%d (%s)", rep.Code.Files, humanize.Bytes(uint64(rep.Code.Bytes)))))
	fmt.Fprintln(w)
	if rep.DataErr != nil {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("[warn] error restoring database: %v", rep.DataErr)))
		fmt.Fprintln(w, warnStyle.Render("[warn] restore completed with warnings"))
		return
	}
	fmt.Fprintln(w, successStyle.Render("[done] restore completed successfully"))
}
