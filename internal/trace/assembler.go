package trace

import (
	"strconv"
	"strings"

	"github.com/standardbeagle/demystify/internal/debug"
	dmerrors "github.com/standardbeagle/demystify/internal/errors"
	"github.com/standardbeagle/demystify/internal/metadata"
)

// Separators around inner exceptions
const (
	innerSeparator = " ---> "
	innerEnd       = "   --- End of inner exception stack trace ---"
)

// Demystify renders an exception and its inner exceptions:
//
//	<TypeName>[: <Message>]
//	  at <frame>
//	  ... ---> <inner exception>
//	   --- End of inner exception stack trace ---
//
// It never panics. When rendering fails part way, the text accumulated so
// far is returned.
func (d *Demystifier) Demystify(ex *metadata.Exception) (text string) {
	if ex == nil {
		return ""
	}
	var sb strings.Builder
	defer func() {
		if rec := recover(); rec != nil {
			debug.LogTrace("%v\n", dmerrors.NewRenderError("exception", rec))
			text = sb.String()
		}
	}()

	d.writeException(&sb, ex, 0)
	return sb.String()
}

// Frames renders a bare trace without an exception header, e.g. one
// captured from a running thread. Like Demystify it never panics.
func (d *Demystifier) Frames(t metadata.Trace) (text string) {
	var sb strings.Builder
	defer func() {
		if rec := recover(); rec != nil {
			debug.LogTrace("%v\n", dmerrors.NewRenderError("frames", rec))
			text = sb.String()
		}
	}()

	d.renderer.WriteFrames(&sb, d.Lines(t))
	return sb.String()
}

func (d *Demystifier) writeException(sb *strings.Builder, ex *metadata.Exception, depth int) {
	sb.WriteString(ex.TypeName)
	if ex.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(ex.Message)
	}

	if ex.Trace.Len() > 0 {
		d.renderer.WriteFrames(sb, d.Lines(ex.Trace))
	}

	causes := ex.Causes()
	if len(causes) == 0 {
		return
	}
	if depth+1 >= d.maxDepth {
		debug.LogTrace("inner exceptions of %s below depth %d not rendered\n", ex.TypeName, d.maxDepth)
		return
	}

	if !ex.IsAggregate() {
		d.writeInner(sb, causes[0], "", depth)
		return
	}
	for i, inner := range causes {
		if inner == nil {
			continue
		}
		sb.WriteByte('\n')
		d.writeInner(sb, inner, "(Inner Exception #"+strconv.Itoa(i)+") ", depth)
	}
}

func (d *Demystifier) writeInner(sb *strings.Builder, inner *metadata.Exception, label string, depth int) {
	sb.WriteString(innerSeparator)
	sb.WriteString(label)
	d.writeException(sb, inner, depth+1)
	sb.WriteByte('\n')
	sb.WriteString(innerEnd)
}
