// Package version carries the identity strings reported by hy2core.
//
// The values are plain variables so release builds can stamp them:
//
//	go build -ldflags "-X hy2core/pkg/version.SDKVersion=0.2.0 -X hy2core/pkg/version.CommitHash=$(git rev-parse --short HEAD)"
package version

import "fmt"

var (
	// SDKName is the human readable product name.
	SDKName = "HY2-Core"
	// SDKVersion is the control plane release.
	SDKVersion = "0.1.0"
	// EngineID is the engine identifier published in health snapshots.
	EngineID = "hy2core"
	// BuildTime is set by the linker (RFC 3339).
	BuildTime = "unknown"
	// CommitHash is set by the linker.
	CommitHash = "unknown"
)

// Info is an immutable copy of the build identity.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Engine    string `json:"engine"`
	BuildTime string `json:"build_time"`
	Commit    string `json:"commit"`
}

// Current snapshots the package variables.
func Current() Info {
	return Info{
		Name:      SDKName,
		Version:   SDKVersion,
		Engine:    EngineID,
		BuildTime: BuildTime,
		Commit:    CommitHash,
	}
}

// String renders the identity line returned by Core.Version, e.g. "HY2-Core 0.1.0 (hy2core)".
func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s)", i.Name, i.Version, i.Engine)
}

// Long includes build metadata.
func (i Info) Long() string {
	return fmt.Sprintf("%s commit=%s built=%s", i.String(), i.Commit, i.BuildTime)
}

// IsZero reports whether no field is set.
func (i Info) IsZero() bool { return i == Info{} }

// String is shorthand for Current().String().
func String() string { return Current().String() }
