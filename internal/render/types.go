package render

import (
	"strings"

	"github.com/standardbeagle/demystify/internal/metadata"
)

// builtinNames maps runtime primitives to their language aliases
var builtinNames = map[string]string{
	"System.Void":    "void",
	"System.Boolean": "bool",
	"System.Byte":    "byte",
	"System.Char":    "char",
	"System.Decimal": "decimal",
	"System.Double":  "double",
	"System.Single":  "float",
	"System.Int32":   "int",
	"System.Int64":   "long",
	"System.Object":  "object",
	"System.SByte":   "sbyte",
	"System.Int16":   "short",
	"System.String":  "string",
	"System.UInt32":  "uint",
	"System.UInt64":  "ulong",
	"System.UInt16":  "ushort",
}

// IsBuiltin reports whether a full type name renders as a language alias
func IsBuiltin(fullName string) bool {
	_, ok := builtinNames[fullName]
	return ok
}

// unknownType is written when a type cannot be looked up
const unknownType = '?'

// TypeName returns the display name of a type
func (r *Renderer) TypeName(id metadata.TypeID, fullName, genericParameterNames bool) string {
	var sb strings.Builder
	r.writeType(&sb, id, fullName, genericParameterNames)
	return sb.String()
}

// maxTypeDepth bounds recursion through element, argument and nesting chains
const maxTypeDepth = 32

func (r *Renderer) writeType(sb *strings.Builder, id metadata.TypeID, fullName, genericParameterNames bool) {
	r.writeTypeAt(sb, id, fullName, genericParameterNames, 0)
}

func (r *Renderer) writeTypeAt(sb *strings.Builder, id metadata.TypeID, fullName, genericParameterNames bool, depth int) {
	t, err := r.provider.Type(id)
	if err != nil || depth > maxTypeDepth {
		sb.WriteByte(unknownType)
		return
	}

	switch {
	case t.IsByRef:
		r.writeTypeAt(sb, t.ElementType, fullName, genericParameterNames, depth+1)
	case t.IsValueTuple() && t.IsGeneric():
		r.writeTupleElements(sb, t, nil, depth)
	case t.IsGeneric():
		r.writeGeneric(sb, t, t.GenericArguments, len(t.GenericArguments), fullName, genericParameterNames, depth)
	case t.IsArray():
		r.writeArray(sb, t, fullName, genericParameterNames, depth)
	case builtinNames[t.FullName] != "":
		sb.WriteString(builtinNames[t.FullName])
	case t.Namespace == "System":
		sb.WriteString(t.Name)
	case t.IsGenericParameter:
		if genericParameterNames {
			sb.WriteString(t.Name)
		}
	case fullName && t.FullName != "":
		sb.WriteString(t.FullName)
	default:
		sb.WriteString(t.Name)
	}
}

func (r *Renderer) writeArray(sb *strings.Builder, t *metadata.Type, fullName, genericParameterNames bool, depth int) {
	var ranks []int
	inner := t
	for inner.IsArray() && len(ranks) <= maxTypeDepth {
		ranks = append(ranks, inner.ArrayRank)
		next, err := r.provider.Type(inner.ElementType)
		if err != nil {
			sb.WriteByte(unknownType)
			inner = nil
			break
		}
		inner = next
	}
	if inner != nil {
		r.writeTypeAt(sb, inner.ID, fullName, genericParameterNames, depth+1)
	}
	for _, rank := range ranks {
		sb.WriteByte('[')
		sb.WriteString(strings.Repeat(",", rank-1))
		sb.WriteByte(']')
	}
}

// writeGeneric writes t with args[offset:length], where offset skips the
// arguments that belong to enclosing types.
func (r *Renderer) writeGeneric(sb *strings.Builder, t *metadata.Type, args []metadata.TypeID, length int, fullName, genericParameterNames bool, depth int) {
	if depth > maxTypeDepth {
		sb.WriteByte(unknownType)
		return
	}

	offset := 0
	var outer *metadata.Type
	if t.IsNested() {
		if o, err := r.provider.Type(t.DeclaringType); err == nil {
			outer = o
			offset = min(len(o.GenericArguments), length)
		}
	}

	if fullName {
		if outer != nil {
			r.writeGeneric(sb, outer, args, offset, fullName, genericParameterNames, depth+1)
			sb.WriteByte('+')
			fullName = false
		} else if t.Namespace != "" {
			sb.WriteString(t.Namespace)
			sb.WriteByte('.')
		}
	}

	tick := strings.IndexByte(t.Name, '`')
	if tick <= 0 {
		sb.WriteString(t.Name)
		return
	}
	sb.WriteString(t.Name[:tick])

	sb.WriteByte('<')
	for i := offset; i < length && i < len(args); i++ {
		r.writeTypeAt(sb, args[i], fullName, genericParameterNames, depth+1)
		if i+1 == length {
			continue
		}
		sb.WriteByte(',')
		if genericParameterNames || !r.isGenericParameter(args[i+1]) {
			sb.WriteByte(' ')
		}
	}
	sb.WriteByte('>')
}

func (r *Renderer) isGenericParameter(id metadata.TypeID) bool {
	t, err := r.provider.Type(id)
	return err == nil && t.IsGenericParameter
}

// writeTupleElements writes "(T1 name1, T2 name2)"; names may be shorter
// than the element list and empty names are skipped
func (r *Renderer) writeTupleElements(sb *strings.Builder, t *metadata.Type, names []string, depth int) {
	sb.WriteByte('(')
	for i, arg := range t.GenericArguments {
		if i > 0 {
			sb.WriteString(", ")
		}
		r.writeTypeAt(sb, arg, false, true, depth+1)
		if i < len(names) && names[i] != "" {
			sb.WriteByte(' ')
			sb.WriteString(names[i])
		}
	}
	sb.WriteByte(')')
}

// writeTupleParameter writes a tuple-shaped parameter type with element names.
// A generic wrapper around a tuple renders as Wrapper<(...)>.
func (r *Renderer) writeTupleParameter(sb *strings.Builder, id metadata.TypeID, names []string) {
	t, err := r.provider.Type(id)
	if err != nil {
		sb.WriteByte(unknownType)
		return
	}
	if t.IsValueTuple() {
		r.writeTupleElements(sb, t, names, 0)
		return
	}
	if len(t.GenericArguments) == 0 {
		r.writeType(sb, id, false, true)
		return
	}

	sb.WriteString(t.BaseName())
	sb.WriteByte('<')
	inner, err := r.provider.Type(t.GenericArguments[0])
	if err != nil {
		sb.WriteByte(unknownType)
	} else if inner.IsValueTuple() {
		r.writeTupleElements(sb, inner, names, 1)
	} else {
		r.writeType(sb, inner.ID, false, true)
	}
	sb.WriteByte('>')
}
