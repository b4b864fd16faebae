package render

import (
	"strconv"
	"strings"

	"github.com/standardbeagle/demystify/internal/metadata"
	"github.com/standardbeagle/demystify/internal/resolver"
)

// unknownReturn is written when a lambda's return type is unknown
const unknownReturn = "{…}"

// Renderer renders resolved methods using type metadata from a provider
type Renderer struct {
	provider metadata.Provider
	opts     Options
}

// NewRenderer creates a renderer
func NewRenderer(provider metadata.Provider, opts Options) *Renderer {
	return &Renderer{provider: provider, opts: opts}
}

// Options returns the rendering options
func (r *Renderer) Options() Options {
	return r.opts
}

func (r *Renderer) marker(sb *strings.Builder, c rune) {
	if r.opts.Markers {
		sb.WriteRune(c)
	}
}

// Method returns the rendered text of one resolved method
func (r *Renderer) Method(rm *resolver.ResolvedMethod) string {
	var sb strings.Builder
	r.WriteMethod(&sb, rm)
	return sb.String()
}

// WriteMethod renders a resolved method:
//
//	[<return> ]<declaring type>.<name>[<generic args>](<params>)[+<sub>(<params>)➞ <return>[ [ordinal]]]
//
// Constructors without a sub-method render as ".new <type>" and type
// initializers as "static <type>".
func (r *Renderer) WriteMethod(sb *strings.Builder, rm *resolver.ResolvedMethod) {
	if rm.ReturnParameter != nil {
		r.writeFullParameter(sb, *rm.ReturnParameter)
		sb.WriteByte(' ')
	}

	hasSub := rm.HasSubMethod()

	switch {
	case rm.DeclaringType == "":
		sb.WriteByte('.')
		sb.WriteString(rm.Name)
	case rm.Name == metadata.ConstructorName && !hasSub:
		sb.WriteString(".new ")
		r.writeType(sb, rm.DeclaringType, true, true)
	case rm.Name == metadata.TypeInitializerName:
		sb.WriteString("static ")
		r.writeType(sb, rm.DeclaringType, true, true)
	default:
		r.writeType(sb, rm.DeclaringType, true, true)
		sb.WriteByte('.')
		sb.WriteString(rm.Name)
	}

	if len(rm.GenericArguments) > 0 {
		sb.WriteByte('<')
		for i, arg := range rm.GenericArguments {
			if i > 0 {
				sb.WriteString(", ")
			}
			r.writeType(sb, arg, false, true)
		}
		sb.WriteByte('>')
	}

	if !hasSub {
		r.marker(sb, markerNameEnd)
	}

	if r.opts.Parameters != ParametersNone {
		sb.WriteByte('(')
		if rm.Resolved() {
			r.writeParameters(sb, rm.Parameters)
		} else {
			sb.WriteByte('?')
		}
		sb.WriteByte(')')
	}

	if hasSub {
		r.writeSubMethod(sb, rm)
	}
}

func (r *Renderer) writeSubMethod(sb *strings.Builder, rm *resolver.ResolvedMethod) {
	sb.WriteByte('+')
	sb.WriteString(rm.SubMethod)

	if !rm.ShowsSubSignature() {
		r.marker(sb, markerNameEnd)
		sb.WriteByte('(')
		r.writeParameterTypes(sb, rm.SubMethodParameters)
		sb.WriteByte(')')
		return
	}

	sb.WriteByte('(')
	if rm.SubMethodBase != "" {
		r.writeParameterTypes(sb, rm.SubMethodParameters)
	} else {
		sb.WriteByte('?')
	}
	sb.WriteString(")➞ ")

	if rm.SubMethodReturnType != "" {
		r.writeType(sb, rm.SubMethodReturnType, false, false)
	} else {
		sb.WriteString(unknownReturn)
	}

	if rm.Ordinal != nil {
		sb.WriteString(" [")
		sb.WriteString(strconv.Itoa(*rm.Ordinal))
		sb.WriteByte(']')
	}
	r.marker(sb, markerNameEnd)
}

// writeParameters writes a parameter list in the configured mode
func (r *Renderer) writeParameters(sb *strings.Builder, params []resolver.ResolvedParameter) {
	switch r.opts.Parameters {
	case ParametersFull:
		for i, p := range params {
			if i > 0 {
				sb.WriteString(", ")
			}
			r.writeFullParameter(sb, p)
		}
	case ParametersShort:
		r.marker(sb, markerOpen)
		for i, p := range params {
			if i > 0 {
				sb.WriteString(", ")
			}
			if p.Name != "" {
				sb.WriteRune([]rune(p.Name)[0])
			} else {
				sb.WriteByte(byte('a' + i%26))
			}
		}
		r.marker(sb, markerClose)
	default:
		r.writeParameterTypes(sb, params)
	}
}

func (r *Renderer) writeParameterTypes(sb *strings.Builder, params []resolver.ResolvedParameter) {
	r.marker(sb, markerOpen)
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		r.writeParameterType(sb, p)
	}
	r.marker(sb, markerClose)
}

func (r *Renderer) writeParameterType(sb *strings.Builder, p resolver.ResolvedParameter) {
	if p.IsTuple {
		r.writeTupleParameter(sb, p.Type, p.TupleNames)
		return
	}
	r.writeType(sb, p.Type, false, true)
}

// writeFullParameter writes "[prefix2 ][prefix ]<type>[ name]"
func (r *Renderer) writeFullParameter(sb *strings.Builder, p resolver.ResolvedParameter) {
	r.marker(sb, markerOpen)
	if p.Prefix2 != "" {
		sb.WriteString(p.Prefix2)
		sb.WriteByte(' ')
	}
	if p.Prefix != "" {
		sb.WriteString(p.Prefix)
		sb.WriteByte(' ')
	}
	if p.Type != "" {
		r.writeParameterType(sb, p)
	} else {
		sb.WriteByte(unknownType)
	}
	r.marker(sb, markerClose)

	if p.Name != "" {
		sb.WriteByte(' ')
		sb.WriteString(p.Name)
	}
}
