// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the release tag of the running binary.
// Inject via: -X github.com/FlockCS/BookClub/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA the binary was built from.
// Inject via: -X github.com/FlockCS/BookClub/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/FlockCS/BookClub/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release returns the identifier reported to error tracking.
// Falls back to the commit, then to "dev".
func Release() string {
	switch {
	case Version != "":
		return "bookclub@" + Version
	case Commit != "":
		return "bookclub@" + Commit
	default:
		return "bookclub@dev"
	}
}
