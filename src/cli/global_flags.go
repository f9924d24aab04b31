package cli

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"docsnap/src/config"
	"docsnap/src/logging"
	"docsnap/src/safety"
	"docsnap/src/target"
)

// addGlobalFlags adds persistent configuration and safety flags to the root command.
func addGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String("config", "", "Project config file (default: ./"+config.DefaultFile+" if present)")
	pf.String("target", "", "Directory holding snapshot directories (e.g., dir:/path; default: config root or cwd)")
	pf.String("credentials", "", "Service account key file (default: firebase-private-key.json)")
	pf.String("project", "", "Firestore project id (default: from credentials)")
	pf.String("log-level", "", "Log level: trace|debug|info|warn|error")
	pf.Bool("dry-run", false, "Show planned actions without making changes")
	pf.BoolP("yes", "y", false, "Assume 'yes' to prompts and run non-interactively")
}

// getSafetyOptions reads global flags into a safety.Options struct.
func getSafetyOptions(cmd *cobra.Command) safety.Options {
	dry, _ := cmd.Root().PersistentFlags().GetBool("dry-run")
	yes, _ := cmd.Root().PersistentFlags().GetBool("yes")
	return safety.Options{DryRun: dry, Yes: yes}
}

// settings is the resolved configuration of one command invocation.
type settings struct {
	cfg  *config.Config
	root target.Target
	log  hclog.Logger
	opts safety.Options
}

// loadSettings merges the config file with flag overrides.
func loadSettings(cmd *cobra.Command, stderr io.Writer) (*settings, error) {
	pf := cmd.Root().PersistentFlags()
	path, _ := pf.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	overrides := map[string]*string{
		"target":      &cfg.Root,
		"credentials": &cfg.Credentials,
		"project":     &cfg.ProjectID,
		"log-level":   &cfg.LogLevel,
	}
	for name, dst := range overrides {
		if pf.Changed(name) {
			*dst, _ = pf.GetString(name)
		}
	}
	if f := cmd.Flags().Lookup("collection"); f != nil && f.Changed {
		cfg.Collections, _ = cmd.Flags().GetStringSlice("collection")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	root, err := target.Parse(cfg.Root)
	if err != nil {
		return nil, err
	}
	return &settings{
		cfg:  cfg,
		root: root,
		log:  logging.New(stderr, cfg.LogLevel),
		opts: getSafetyOptions(cmd),
	}, nil
}
