// Package build holds version information set with -ldflags -X.
package build

import (
	"runtime/debug"
	"time"
)

var (
	commit  = ""
	date    = ""
	version = "dev"
)

var Current Build

type Build struct {
	Commit    string    `json:"commit,omitempty"`
	Version   string    `json:"version,omitempty"`
	Date      time.Time `json:"date,omitempty"`
	GoVersion string    `json:"go_version,omitempty"`
}

func init() {
	date, _ := time.Parse(time.RFC3339, date)

	Current = Build{
		Commit:  commit,
		Version: version,
		Date:    date,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	Current.GoVersion = info.GoVersion
	if Current.Commit == "" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				Current.Commit = s.Value
			}
		}
	}
}

func (b Build) String() string {
	s := b.Version
	if b.Commit != "" {
		short := b.Commit
		if len(short) > 7 {
			short = short[:7]
		}
		s += " (" + short + ")"
	}
	return s
}
