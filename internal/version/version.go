// Package version exposes build metadata injected with -ldflags.
package version

import (
	"fmt"
	"strconv"
)

var Version = "dev"
var Major = "0"
var Minor = "0"
var Patch = "0"
var Built = ""
var GitCommit = ""

type Info struct {
	Version   string `json:"version"`
	Major     int    `json:"major"`
	Minor     int    `json:"minor"`
	Patch     int    `json:"patch"`
	Built     string `json:"built"`
	GitCommit string `json:"git_commit,omitempty"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Major:     parseInt(Major),
		Minor:     parseInt(Minor),
		Patch:     parseInt(Patch),
		Built:     Built,
		GitCommit: GitCommit,
	}
}

// String renders the version line printed by --version.
func (i Info) String() string {
	out := i.Version
	if i.GitCommit != "" {
		out = fmt.Sprintf("%s (commit %s)", out, i.GitCommit)
	}
	if i.Built != "" {
		out = fmt.Sprintf("%s built %s", out, i.Built)
	}
	return out
}

func parseInt(value string) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}
