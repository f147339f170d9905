package version

// Version is the engine version. Release builds override it with
// -ldflags "-X github.com/rxtech-lab/argo-backtest/internal/version.Version=v1.2.3".
// "main" marks a development build.
var Version = "v1.0.0"

// GetVersion returns the engine version.
func GetVersion() string {
	return Version
}
