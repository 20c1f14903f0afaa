// Package utils holds build metadata stamped in at link time.
package utils

import (
	"fmt"
	"runtime"
	"sync"
)

// Version describes the running build.
type Version struct {
	Str     string         `json:"str"`
	Details VersionDetails `json:"details"`
}

// VersionDetails are the individual build fields.
type VersionDetails struct {
	Version   string `json:"version"`
	Branch    string `json:"branch"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Arch      string `json:"arch"`
}

var (
	mu      sync.RWMutex
	details = VersionDetails{Version: "0.0.0", Branch: "unknown", Commit: "unknown", BuildDate: "unknown"}
)

// SetVersion populates the package-level version variables. Empty values keep
// their defaults.
func SetVersion(versionStr, branchStr, commitStr, buildDateStr, archStr string) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&details.Version, versionStr)
	set(&details.Branch, branchStr)
	set(&details.Commit, commitStr)
	set(&details.BuildDate, buildDateStr)
	set(&details.Arch, archStr)
}

// GetVersion returns the version information for the bot.
func GetVersion() Version {
	mu.RLock()
	d := details
	mu.RUnlock()
	if d.Arch == "" {
		d.Arch = runtime.GOOS + "/" + runtime.GOARCH
	}
	commit := d.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return Version{
		Str:     fmt.Sprintf("%s.%s.%s.%s", d.Version, d.Branch, commit, d.Arch),
		Details: d,
	}
}
