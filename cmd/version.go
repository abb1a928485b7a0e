package cmd

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func versionTemplate() string {
	return fmt.Sprintf("%s version {{ .Version }} (commit %s, built %s, %s %s/%s)\n",
		Name, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
