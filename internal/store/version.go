package store

import "github.com/maloquacious/semver"

// Version is the writer version stamped into every stored solution.
var Version = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}
