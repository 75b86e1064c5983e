// Package misc keeps build time information.
package misc

var (
	appName = "mtalk"
	version = "dev"
	gitHash = "unknown"
)

// GetAppName returns application name, used for logger naming and temporary files.
func GetAppName() string {
	return appName
}

// GetVersion returns program version, normally injected with -ldflags.
func GetVersion() string {
	return version
}

// GetGitHash returns git commit program was built from.
func GetGitHash() string {
	return gitHash
}
