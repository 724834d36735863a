// Package version holds build metadata injected at link time.
package version

var (
	// Version is overridden via -ldflags on release builds.
	Version = "v1.0.0-dev"

	// BuildTime is overridden via -ldflags on release builds.
	BuildTime = "unknown"
)

// String returns the human-readable version line.
func String() string {
	return Version + " (built " + BuildTime + ")"
}
