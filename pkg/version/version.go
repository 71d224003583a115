package version

import "fmt"

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit string
	BuildTime string
)

func String() string {
	if GitCommit == "" {
		return Version
	}
	return fmt.Sprintf("%s, Commit:%s, Build-time:%s", Version, GitCommit, BuildTime)
}
