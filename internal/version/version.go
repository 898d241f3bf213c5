// Package version holds build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/banshee-data/vertex.report/internal/version.Version=v0.3.0" ./cmd/vertex-study
package version

import "fmt"

var (
	// Version is the release tag
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for -version output.
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, GitSHA, BuildTime)
}
