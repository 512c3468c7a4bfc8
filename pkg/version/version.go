// Package version holds the build version, overridden at release time via
// -ldflags "-X github.com/omnibust/omnibust/pkg/version.Version=...".
package version

// Version is the current omnibust version.
var Version = "dev"
