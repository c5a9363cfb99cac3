// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

import "fmt"

// Set at link time: -ldflags "-X github.com/papercomputeco/toolbox/pkg/utils.Version=..."
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// VersionString is the one-line build description printed by `toolbox version`.
func VersionString() string {
	return fmt.Sprintf("toolbox %s (%s, built %s)", Version, Sha, Buildtime)
}
