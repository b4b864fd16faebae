// Package metadata defines the introspection surface the demystifier needs from
// its host: types, methods, attributes and decoded method bodies, addressed by
// stable string identities.
package metadata

import (
	"strings"
)

// TypeID is a stable identifier for a type (open or constructed)
type TypeID string

// MethodID is a stable identifier for a method, constructor or type initializer
type MethodID string

// Type describes a single type as reported by the host runtime
type Type struct {
	ID        TypeID
	Namespace string
	// Name is the metadata name, keeping the generic arity suffix (e.g. "List`1")
	Name string
	// FullName is namespace-qualified with nested types joined by '+'.
	// Stores fill it in when the host leaves it empty.
	FullName string

	// DeclaringType is the lexically enclosing type of a nested type
	DeclaringType TypeID

	GenericArguments        []TypeID
	IsGenericParameter      bool
	IsGenericTypeDefinition bool

	// ElementType is set for arrays and by-ref types
	ElementType TypeID
	ArrayRank   int
	IsByRef     bool

	// Interfaces lists the full names of implemented interfaces
	Interfaces []string
}

// IsGeneric reports whether the type carries generic arguments or parameters
func (t *Type) IsGeneric() bool {
	return len(t.GenericArguments) > 0
}

// IsArray reports whether the type is an array of any rank
func (t *Type) IsArray() bool {
	return t.ArrayRank > 0
}

// IsNested reports whether the type is declared inside another type
func (t *Type) IsNested() bool {
	return t.DeclaringType != ""
}

// Implements reports whether the type implements the named interface
func (t *Type) Implements(fullName string) bool {
	for _, iface := range t.Interfaces {
		if iface == fullName {
			return true
		}
	}
	return false
}

// IsValueTuple reports whether the type is one of the System.ValueTuple shapes
func (t *Type) IsValueTuple() bool {
	return strings.HasPrefix(t.FullName, valueTuplePrefix)
}

// BaseName returns the type name without its generic arity suffix
func (t *Type) BaseName() string {
	if i := strings.IndexByte(t.Name, '`'); i > 0 {
		return t.Name[:i]
	}
	return t.Name
}

// MethodKind distinguishes ordinary methods from constructors
type MethodKind int

const (
	MethodKindMethod MethodKind = iota
	MethodKindConstructor
	MethodKindTypeInitializer
)

// Metadata names used by the runtime for constructors
const (
	ConstructorName     = ".ctor"
	TypeInitializerName = ".cctor"
)

// String returns the kind name used in dump documents
func (k MethodKind) String() string {
	switch k {
	case MethodKindConstructor:
		return "constructor"
	case MethodKindTypeInitializer:
		return "type_initializer"
	default:
		return "method"
	}
}

// Parameter describes one formal parameter
type Parameter struct {
	Name string
	// Type may be a by-ref type; its ElementType is the referenced type
	Type  TypeID
	IsOut bool
}

// Method describes a method, constructor or type initializer
type Method struct {
	ID            MethodID
	Name          string
	DeclaringType TypeID
	Kind          MethodKind
	Parameters    []Parameter
	// ReturnType is empty for constructors and type initializers
	ReturnType       TypeID
	GenericArguments []TypeID
}

// IsConstructor reports whether the method is an instance or static constructor
func (m *Method) IsConstructor() bool {
	return m.Kind == MethodKindConstructor || m.Kind == MethodKindTypeInitializer
}

// IsGeneric reports whether the method has its own generic arguments
func (m *Method) IsGeneric() bool {
	return len(m.GenericArguments) > 0
}

// Attribute is a custom attribute instance attached to a type, method or parameter
type Attribute struct {
	// TypeName is the attribute's full type name
	TypeName string
	// StateMachineType links an async/iterator method to its generated state machine
	StateMachineType TypeID
	// TupleElementNames carries element names for tuple-shaped parameters.
	// Unnamed elements are empty strings.
	TupleElementNames []string
}

// Well-known attribute and interface type names
const (
	CompilerGeneratedAttribute         = "System.Runtime.CompilerServices.CompilerGeneratedAttribute"
	StackTraceHiddenAttribute          = "System.Diagnostics.StackTraceHiddenAttribute"
	StateMachineAttribute              = "System.Runtime.CompilerServices.StateMachineAttribute"
	IteratorStateMachineAttribute      = "System.Runtime.CompilerServices.IteratorStateMachineAttribute"
	AsyncStateMachineAttribute         = "System.Runtime.CompilerServices.AsyncStateMachineAttribute"
	AsyncIteratorStateMachineAttribute = "System.Runtime.CompilerServices.AsyncIteratorStateMachineAttribute"
	TupleElementNamesAttribute         = "System.Runtime.CompilerServices.TupleElementNamesAttribute"
	IsReadOnlyAttribute                = "System.Runtime.CompilerServices.IsReadOnlyAttribute"
	EnumeratorInterface                = "System.Collections.IEnumerator"
	AsyncStateMachineInterface         = "System.Runtime.CompilerServices.IAsyncStateMachine"
	valueTuplePrefix                   = "System.ValueTuple`"
)

// IsStateMachineAttribute reports whether the attribute links a method to a state machine
func (a Attribute) IsStateMachineAttribute() bool {
	switch a.TypeName {
	case StateMachineAttribute, IteratorStateMachineAttribute, AsyncStateMachineAttribute, AsyncIteratorStateMachineAttribute:
		return true
	}
	return false
}

// HasAttribute reports whether attrs contains an attribute of the given type name
func HasAttribute(attrs []Attribute, typeName string) bool {
	for _, a := range attrs {
		if a.TypeName == typeName {
			return true
		}
	}
	return false
}

// Instruction is one decoded instruction of a method body
type Instruction struct {
	Offset int
	OpCode string
	// Method is set when the operand references a method
	Method MethodID
}

// DelegateField is a static field holding a delegate, used to name lambdas
// cached by type initializers
type DelegateField struct {
	Name       string
	Method     MethodID
	TargetType TypeID
}
