// Package version holds build metadata, set with -ldflags at release time.
package version

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String renders the full version line.
func String() string {
	return Version + " (commit: " + GitCommit + ", built: " + BuildTime + ")"
}
