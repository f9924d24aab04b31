// Package logging builds the hclog logger shared by the CLI and pipelines.
package logging

import (
	"io"

	"github.com/hashicorp/go-hclog"
)

// New returns a logger named "docsnap" writing to w at the given level.
// Unknown levels fall back to info.
func New(w io.Writer, level string) hclog.Logger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:            "docsnap",
		Level:           lvl,
		Output:          w,
		Color:           hclog.AutoColor,
		DisableTime:     true,
		IncludeLocation: lvl <= hclog.Debug,
	})
}
