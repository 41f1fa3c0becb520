package constants

// Version is set at build time with -ldflags "-X github.com/repolens/cli/constants.Version=...".
var Version = "source"

const (
	// LocalAccount keys the credential of the command-line session.
	LocalAccount = "local"
	ReleaseOwner = "repolens"
	ReleaseRepo  = "cli"
)
