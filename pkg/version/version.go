package version

import (
	"runtime"
)

// Name identifies this module in User-Agent headers and build info.
const Name = "travelplanner-client"

// Set with -ldflags "-X github.com/milan604/travelplanner-client/pkg/version.Version=v1.2.3".
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// UserAgent is the User-Agent the API client sends, e.g.
// "travelplanner-client/v1.2.3 (go1.26.0)".
func UserAgent() string {
	return Name + "/" + Version + " (" + runtime.Version() + ")"
}

// Info is the build metadata served by /healthz and printed in the banner.
func Info() map[string]string {
	return map[string]string{
		"name":    Name,
		"version": Version,
		"commit":  Commit,
		"date":    Date,
		"go":      runtime.Version(),
	}
}
