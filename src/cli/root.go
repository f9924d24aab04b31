package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"docsnap/src/config"
	"docsnap/src/docstore"
	"docsnap/src/gitfiles"
)

// Env holds the collaborators the commands use. Zero fields fall back to the
// process defaults (stdin, cwd, Firestore, git, wall clock).
type Env struct {
	Stdin   io.Reader
	WorkDir string
	Open    func(cfg *config.Config) docstore.Opener
	Files   func(dir string, log hclog.Logger) gitfiles.Lister
	Now     func() time.Time
}

func (e Env) withDefaults() Env {
	if e.Stdin == nil {
		e.Stdin = os.Stdin
	}
	if e.Open == nil {
		e.Open = func(cfg *config.Config) docstore.Opener {
			return docstore.FirestoreOpener(cfg.Credentials, cfg.ProjectID)
		}
	}
	if e.Files == nil {
		e.Files = func(dir string, log hclog.Logger) gitfiles.Lister {
			return gitfiles.Git{Dir: dir, Logger: log}
		}
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	return e
}

// NewRootCmd returns the root cobra command for the docsnap CLI.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	return NewRootCmdWithEnv(stdout, stderr, Env{})
}

// NewRootCmdWithEnv is NewRootCmd with explicit collaborators.
func NewRootCmdWithEnv(stdout, stderr io.Writer, env Env) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	env = env.withDefaults()
	cmd := &cobra.Command{
		Use:           "docsnap",
		Short:         "Back up and restore Firestore collections and the tracked code tree",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	cmd.AddCommand(newVersionCmd(stdout))
	cmd.AddCommand(newBackupCmd(stdout, stderr, env))
	cmd.AddCommand(newRestoreCmd(stdout, stderr, env))
	cmd.AddCommand(newListCmd(stdout, stderr))
	cmd.AddCommand(newVerifyCmd(stdout, stderr))

	return cmd
}

// Execute runs the CLI with the process stdio. An interrupt cancels the
// running command.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] %v", err)))
		return 1
	}
	return 0
}
