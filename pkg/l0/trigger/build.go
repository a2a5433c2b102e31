package trigger

import (
	"runtime/debug"
	"strings"

	"github.com/robotalks/miniboard/pkg/l0/store"
)

// Version is the firmware version, set with
// -ldflags "-X github.com/robotalks/miniboard/pkg/l0/trigger.Version=...".
var Version = "dev"

// BuildInfo reports the build identifier:
//
//	<version>+<vcs revision>[.dirty]@<board id>
//
// truncated to the register size. Missing parts are omitted.
type BuildInfo struct {
	BoardID string
	Cell    *store.Cell

	// ReadBuildInfo is debug.ReadBuildInfo if nil.
	ReadBuildInfo func() (*debug.BuildInfo, bool)
}

// Ident assembles the build identifier.
func (b *BuildInfo) Ident() string {
	var sb strings.Builder
	sb.WriteString(Version)
	read := b.ReadBuildInfo
	if read == nil {
		read = debug.ReadBuildInfo
	}
	if info, ok := read(); ok {
		var rev string
		var dirty bool
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.modified":
				dirty = s.Value == "true"
			}
		}
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if rev != "" {
			sb.WriteString("+" + rev)
			if dirty {
				sb.WriteString(".dirty")
			}
		}
	}
	if id := b.BoardID; id != "" {
		if len(id) > 8 {
			id = id[:8]
		}
		sb.WriteString("@" + id)
	}
	return sb.String()
}

// Fire implements regs.Trigger.
func (b *BuildInfo) Fire(dst []byte) int {
	n := copy(dst, b.Ident())
	if b.Cell != nil {
		b.Cell.Commit(dst[:n])
	}
	return n
}
