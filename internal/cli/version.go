package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mrz1836/go-pranalyzer/internal/jsonutil"
)

const (
	devVersionString = "dev"
	unknownString    = "unknown"
)

// Build information set via ldflags
//
//nolint:gochecknoglobals // Build variables are set via ldflags during compilation
var (
	versionMu sync.RWMutex
	version   = devVersionString
	commit    = unknownString
	buildDate = unknownString
)

// VersionInfo contains version information
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns complete version information
func GetVersionInfo() VersionInfo {
	versionMu.RLock()
	info := VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	versionMu.RUnlock()

	// Fall back to module and VCS build info when ldflags were not set
	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == devVersionString && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, setting := range bi.Settings {
			if setting.Key == "vcs.revision" && info.Commit == unknownString && setting.Value != "" {
				info.Commit = setting.Value
				if len(info.Commit) > 7 {
					info.Commit = info.Commit[:7]
				}
			}
			if setting.Key == "vcs.time" && info.BuildDate == unknownString && setting.Value != "" {
				info.BuildDate = setting.Value
			}
		}
	}

	return info
}

// createVersionCmd creates the version command
func createVersionCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build details.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := GetVersionInfo()
			writer := writerFor(cmd)

			if jsonOut {
				text, err := jsonutil.PrettyPrint(info)
				if err != nil {
					return err
				}
				writer.Plain(text)
				return nil
			}

			writer.Info(fmt.Sprintf("go-pranalyzer %s", info.Version))
			writer.Info(fmt.Sprintf("Commit:     %s", info.Commit))
			writer.Info(fmt.Sprintf("Build Date: %s", info.BuildDate))
			writer.Info(fmt.Sprintf("Go Version: %s", info.GoVersion))
			writer.Info(fmt.Sprintf("Platform:   %s/%s", info.OS, info.Arch))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output version information in JSON format")

	return cmd
}
