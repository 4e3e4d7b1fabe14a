package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build details",
	Run: func(_ *cobra.Command, _ []string) {
		v, revision := buildDetails()
		fmt.Printf("%s version: %s\n", app, v)
		if revision != "" {
			fmt.Printf("revision: %s\n", revision)
		}
		fmt.Printf("go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// buildDetails prefers the linker-set version, then the module version
// recorded by go install. The revision comes from vcs stamping.
func buildDetails() (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version, ""
	}

	v := version
	if v == "unknown" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}

	var revision string
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			revision = s.Value
		}
	}
	return v, revision
}
