package render

import (
	"strconv"
	"strings"

	"github.com/standardbeagle/demystify/internal/metadata"
	"github.com/standardbeagle/demystify/internal/resolver"
	"github.com/standardbeagle/demystify/pkg/pathutil"
)

// Line pairs a visible frame with its resolved method. Method is nil when the
// frame could not be identified; the raw frame text is rendered instead.
type Line struct {
	Frame  metadata.Frame
	Method *resolver.ResolvedMethod
}

// unknownFrame is rendered for frames carrying neither identity nor raw text
const unknownFrame = "<unknown frame>"

// WriteFrames writes one line per frame, each preceded by a newline. The first
// location prints the full path and later ones only the file name.
func (r *Renderer) WriteFrames(sb *strings.Builder, lines []Line) {
	loggedFullPath := false
	for _, line := range lines {
		sb.WriteByte('\n')
		sb.WriteString(r.opts.FramePrefix)

		if line.Method == nil {
			r.writeRawFrame(sb, line.Frame)
			continue
		}

		r.WriteMethod(sb, line.Method)
		if !r.showsLocation(line) {
			continue
		}

		if r.opts.Markers {
			sb.WriteString(" →(at ")
		} else {
			sb.WriteString(" (at ")
		}
		if !loggedFullPath {
			sb.WriteString(line.Frame.File)
			loggedFullPath = true
		} else {
			sb.WriteString(pathutil.BaseName(line.Frame.File))
		}
		if line.Frame.Line != 0 {
			sb.WriteByte(':')
			sb.WriteString(strconv.Itoa(line.Frame.Line))
		}
		sb.WriteByte(')')
	}
}

func (r *Renderer) showsLocation(line Line) bool {
	if !r.opts.Locations || line.Frame.File == "" {
		return false
	}
	prefix := r.opts.OmitLocationPrefix
	return prefix == "" || !strings.HasPrefix(line.Method.Name, prefix)
}

func (r *Renderer) writeRawFrame(sb *strings.Builder, f metadata.Frame) {
	switch {
	case f.Raw != "":
		sb.WriteString(f.Raw)
	case f.Method != "":
		sb.WriteString(string(f.Method))
	default:
		sb.WriteString(unknownFrame)
	}
}
