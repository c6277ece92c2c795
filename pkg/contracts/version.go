package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the release of the service and the CLI
	Version = "0.3.0"

	// ServiceName is reported by /version and used as the default telemetry
	// service name
	ServiceName = "excelcleaner"

	// APIVersion is the version of the HTTP API
	APIVersion = "v1"
)

// Set with -ldflags "-X excelcleaner/pkg/contracts.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is the body of GET /api/v1/version
type VersionInfo struct {
	Service      string `json:"service"`
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Service:      ServiceName,
		Version:      Version,
		APIVersion:   APIVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
}

// String formats the info on one line, as printed by -version
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s v%s (api %s, built: %s, commit: %s, %s %s/%s)",
		v.Service, v.Version, v.APIVersion, v.BuildTime, v.GitCommit, v.GoVersion, v.OS, v.Architecture)
}
