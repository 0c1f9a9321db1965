// Copyright 2024 The MaxMQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package build

import (
	"bytes"
	"fmt"
	"runtime"
	"runtime/debug"
	"text/tabwriter"
)

// Variables updated at build time through -ldflags.
var (
	version   string
	revision  string
	buildTime string
	buildType string
)

// Info contains build information.
type Info struct {
	// The application version.
	Version string

	// The commit ID of the build.
	Revision string

	// The build time in UTC (year-month-day hour:min:sec).
	BuildTime string

	// Type of the build: "development" or "release".
	BuildType string

	// The runtime platform (architecture and operating system).
	Platform string

	// The runtime Go version.
	GoVersion string
}

// GetInfo returns the build Info. Values not set at build time are taken from the module build
// information embedded by the Go toolchain, when available.
func GetInfo() Info {
	i := Info{
		Version:   version,
		Revision:  revision,
		BuildTime: buildTime,
		BuildType: buildType,
		Platform:  fmt.Sprintf("%s-%s", runtime.GOARCH, runtime.GOOS),
		GoVersion: runtime.Version(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		i.fill(bi)
	}
	if i.BuildType == "" {
		i.BuildType = "development"
	}
	return i
}

func (i *Info) fill(bi *debug.BuildInfo) {
	if i.Version == "" && bi.Main.Version != "" {
		i.Version = bi.Main.Version
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.Revision == "" {
				i.Revision = s.Value
			}
		case "vcs.time":
			if i.BuildTime == "" {
				i.BuildTime = s.Value
			}
		}
	}
}

// ShortVersion return a pretty printed version summary.
func (i Info) ShortVersion() string {
	return fmt.Sprintf("MaxMQ Client %s\n", i.Version)
}

// LongVersion returns a pretty printed build summary.
func (i Info) LongVersion() string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 2, 1, 2, ' ', 0)

	_, _ = fmt.Fprintf(tw, "Version:\t%s\n", i.Version)
	_, _ = fmt.Fprintf(tw, "Revision:\t%s\n", i.Revision)
	_, _ = fmt.Fprintf(tw, "Build Time:\t%s\n", i.BuildTime)
	_, _ = fmt.Fprintf(tw, "Build Type:\t%s\n", i.BuildType)
	_, _ = fmt.Fprintf(tw, "Platform:\t%s\n", i.Platform)

	// The last line does not need newline as it's already printed by cobra
	_, _ = fmt.Fprintf(tw, "Go Version:\t%s", i.GoVersion)

	_ = tw.Flush()
	return buf.String()
}
