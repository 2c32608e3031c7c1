// Package version carries build metadata for the ibmirror binaries.
//
// The variables are overridden at link time:
//
//	go build -ldflags "-X github.com/rickgao/ibmirror/internal/version.Version=0.3.0 \
//	                   -X github.com/rickgao/ibmirror/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/ibmirror/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	         ./cmd/ibmirror
package version

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"

	// Commit is the short git hash.
	Commit = "unknown"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// String returns "<version> (<commit>) built <time>", as logged at startup.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}
