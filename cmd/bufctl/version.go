package main

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/joshuapare/offheap/internal/simd"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = ""
)

func init() {
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build and vector support information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion()
		},
	}
}

type versionInfo struct {
	Version     string `json:"version"`
	Commit      string `json:"commit,omitempty"`
	GoVersion   string `json:"go_version"`
	Platform    string `json:"platform"`
	VectorBytes int    `json:"vector_bytes"`
}

// buildVersion fills what ldflags left unset from the module build info.
func buildVersion() versionInfo {
	info := versionInfo{
		Version:     version,
		Commit:      commit,
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		VectorBytes: simd.VectorBytes(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	if info.Commit == "" {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Commit = s.Value
			}
		}
	}
	return info
}

func runVersion() error {
	info := buildVersion()
	if jsonOut {
		return printJSON(info)
	}
	printInfo("bufctl %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
	if info.Commit != "" {
		printInfo("  commit: %s\n", info.Commit)
	}
	if info.VectorBytes == 0 {
		printInfo("  vectors: none, scalar kernels\n")
	} else {
		printInfo("  vectors: %d-byte registers\n", info.VectorBytes)
	}
	return nil
}
