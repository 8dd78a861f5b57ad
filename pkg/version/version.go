// Package version holds the build version, overridden at link time with
// -ldflags "-X github.com/phoenixcrm/leadview/pkg/version.Version=...".
package version

// Version is the leadview release.
var Version = "v0.3.0"
