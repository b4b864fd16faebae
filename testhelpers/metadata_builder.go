// Package testhelpers provides shared fixtures for testing the demystifier
package testhelpers

import (
	"strconv"
	"strings"

	"github.com/standardbeagle/demystify/internal/metadata"
)

// Well-known type IDs registered by NewMetadataBuilder
const (
	Void       metadata.TypeID = "System.Void"
	Int        metadata.TypeID = "System.Int32"
	Long       metadata.TypeID = "System.Int64"
	Bool       metadata.TypeID = "System.Boolean"
	String     metadata.TypeID = "System.String"
	Object     metadata.TypeID = "System.Object"
	Float      metadata.TypeID = "System.Single"
	ValueTuple metadata.TypeID = "System.ValueTuple`2"
	Exception  metadata.TypeID = "System.Exception"
	Action     metadata.TypeID = "System.Action"
)

// MetadataBuilder assembles synthetic metadata in a metadata.Store.
// Type IDs are full names; method IDs are "<type>::<name>" with a numeric
// suffix for overloads.
//
//	b := testhelpers.NewMetadataBuilder()
//	player := b.Type("Game", "Player")
//	update := b.Method(player, "Update", testhelpers.Void)
type MetadataBuilder struct {
	Store *metadata.Store
	seen  map[string]int
}

// NewMetadataBuilder creates a builder with the System primitives registered
func NewMetadataBuilder() *MetadataBuilder {
	b := &MetadataBuilder{Store: metadata.NewStore(), seen: make(map[string]int)}
	for _, id := range []metadata.TypeID{Void, Int, Long, Bool, String, Object, Float, Exception, Action} {
		name := strings.TrimPrefix(string(id), "System.")
		b.Store.AddType(metadata.Type{ID: id, Namespace: "System", Name: name})
	}
	t1 := b.GenericParameter("T1")
	t2 := b.GenericParameter("T2")
	b.Store.AddType(metadata.Type{
		ID: ValueTuple, Namespace: "System", Name: "ValueTuple`2",
		GenericArguments: []metadata.TypeID{t1, t2}, IsGenericTypeDefinition: true,
	})
	return b
}

// Type registers a top-level type
func (b *MetadataBuilder) Type(namespace, name string) metadata.TypeID {
	id := metadata.TypeID(name)
	if namespace != "" {
		id = metadata.TypeID(namespace + "." + name)
	}
	return b.Store.AddType(metadata.Type{ID: id, Namespace: namespace, Name: name})
}

// GenericType registers a top-level generic type definition over named
// parameters
func (b *MetadataBuilder) GenericType(namespace, name string, params ...string) metadata.TypeID {
	args := make([]metadata.TypeID, len(params))
	for i, p := range params {
		args[i] = b.GenericParameter(p)
	}
	id := metadata.TypeID(namespace + "." + name)
	return b.Store.AddType(metadata.Type{
		ID: id, Namespace: namespace, Name: name,
		GenericArguments: args, IsGenericTypeDefinition: true,
	})
}

// NestedType registers a type declared inside outer
func (b *MetadataBuilder) NestedType(outer metadata.TypeID, name string) metadata.TypeID {
	ns := ""
	if t, err := b.Store.Type(outer); err == nil {
		ns = t.Namespace
	}
	id := metadata.TypeID(string(outer) + "+" + name)
	return b.Store.AddType(metadata.Type{ID: id, Namespace: ns, Name: name, DeclaringType: outer})
}

// CompilerGenerated marks a type as compiler-generated and adds interfaces
func (b *MetadataBuilder) CompilerGenerated(id metadata.TypeID, interfaces ...string) {
	b.Store.AddAttribute(metadata.TypeTarget(id), metadata.Attribute{TypeName: metadata.CompilerGeneratedAttribute})
	if len(interfaces) == 0 {
		return
	}
	t, err := b.Store.Type(id)
	if err != nil {
		return
	}
	t.FullName = ""
	t.Interfaces = append(t.Interfaces, interfaces...)
	b.Store.AddType(*t)
}

// StateMachine registers a compiler-generated iterator state machine nested in
// owner, links ownerMethod to it and returns the MoveNext step method
func (b *MetadataBuilder) StateMachine(owner metadata.TypeID, ownerMethod metadata.MethodID, name string) metadata.MethodID {
	sm := b.NestedType(owner, name)
	b.CompilerGenerated(sm, metadata.EnumeratorInterface)
	b.Store.AddAttribute(metadata.MethodTarget(ownerMethod), metadata.Attribute{
		TypeName:         metadata.IteratorStateMachineAttribute,
		StateMachineType: sm,
	})
	return b.Method(sm, "MoveNext", Bool)
}

// GenericParameter registers a generic type parameter
func (b *MetadataBuilder) GenericParameter(name string) metadata.TypeID {
	id := metadata.TypeID("!" + name)
	return b.Store.AddType(metadata.Type{ID: id, Name: name, IsGenericParameter: true})
}

// GenericInstance registers def constructed over args
func (b *MetadataBuilder) GenericInstance(def metadata.TypeID, args ...metadata.TypeID) metadata.TypeID {
	t, err := b.Store.Type(def)
	if err != nil {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = string(a)
	}
	id := metadata.TypeID(string(def) + "[" + strings.Join(parts, ",") + "]")
	return b.Store.AddType(metadata.Type{
		ID: id, Namespace: t.Namespace, Name: t.Name, DeclaringType: t.DeclaringType,
		GenericArguments: args, Interfaces: t.Interfaces,
	})
}

// Tuple registers System.ValueTuple`2 over two element types
func (b *MetadataBuilder) Tuple(first, second metadata.TypeID) metadata.TypeID {
	return b.GenericInstance(ValueTuple, first, second)
}

// Array registers an array of elem with the given rank
func (b *MetadataBuilder) Array(elem metadata.TypeID, rank int) metadata.TypeID {
	id := metadata.TypeID(string(elem) + "[" + strings.Repeat(",", rank-1) + "]")
	return b.Store.AddType(metadata.Type{ID: id, Name: string(id), ElementType: elem, ArrayRank: rank})
}

// ByRef registers a by-reference type over elem
func (b *MetadataBuilder) ByRef(elem metadata.TypeID) metadata.TypeID {
	id := metadata.TypeID(string(elem) + "&")
	return b.Store.AddType(metadata.Type{ID: id, Name: string(id), ElementType: elem, IsByRef: true})
}

func (b *MetadataBuilder) methodID(declType metadata.TypeID, name string) metadata.MethodID {
	key := string(declType) + "::" + name
	n := b.seen[key]
	b.seen[key] = n + 1
	if n == 0 {
		return metadata.MethodID(key)
	}
	return metadata.MethodID(key + "#" + strconv.Itoa(n))
}

// Method registers an ordinary method
func (b *MetadataBuilder) Method(declType metadata.TypeID, name string, ret metadata.TypeID, params ...metadata.Parameter) metadata.MethodID {
	return b.Store.AddMethod(metadata.Method{
		ID: b.methodID(declType, name), Name: name, DeclaringType: declType,
		Kind: metadata.MethodKindMethod, ReturnType: ret, Parameters: params,
	})
}

// GenericMethod registers a method with its own generic arguments
func (b *MetadataBuilder) GenericMethod(declType metadata.TypeID, name string, ret metadata.TypeID, args []metadata.TypeID, params ...metadata.Parameter) metadata.MethodID {
	return b.Store.AddMethod(metadata.Method{
		ID: b.methodID(declType, name), Name: name, DeclaringType: declType,
		Kind: metadata.MethodKindMethod, ReturnType: ret, Parameters: params, GenericArguments: args,
	})
}

// Ctor registers an instance constructor
func (b *MetadataBuilder) Ctor(declType metadata.TypeID, params ...metadata.Parameter) metadata.MethodID {
	return b.Store.AddMethod(metadata.Method{
		ID: b.methodID(declType, metadata.ConstructorName), Name: metadata.ConstructorName,
		DeclaringType: declType, Kind: metadata.MethodKindConstructor, Parameters: params,
	})
}

// TypeInitializer registers a static constructor
func (b *MetadataBuilder) TypeInitializer(declType metadata.TypeID) metadata.MethodID {
	return b.Store.AddMethod(metadata.Method{
		ID: b.methodID(declType, metadata.TypeInitializerName), Name: metadata.TypeInitializerName,
		DeclaringType: declType, Kind: metadata.MethodKindTypeInitializer,
	})
}

// Calls records a body for caller that references each callee in order
func (b *MetadataBuilder) Calls(caller metadata.MethodID, callees ...metadata.MethodID) {
	instrs := make([]metadata.Instruction, 0, len(callees)+1)
	for i, c := range callees {
		instrs = append(instrs, metadata.Instruction{Offset: i * 5, OpCode: "call", Method: c})
	}
	instrs = append(instrs, metadata.Instruction{Offset: len(callees) * 5, OpCode: "ret"})
	b.Store.SetInstructions(caller, instrs...)
}

// Locals records the local variable types of a method body
func (b *MetadataBuilder) Locals(m metadata.MethodID, types ...metadata.TypeID) {
	b.Store.SetLocals(m, types...)
}

// Hide marks a method or type target as hidden from traces
func (b *MetadataBuilder) Hide(target metadata.AttributeTarget) {
	b.Store.AddAttribute(target, metadata.Attribute{TypeName: metadata.StackTraceHiddenAttribute})
}

// TupleNames attaches element names to a parameter of m
func (b *MetadataBuilder) TupleNames(m metadata.MethodID, index int, names ...string) {
	b.Store.AddAttribute(metadata.ParameterTarget(m, index), metadata.Attribute{
		TypeName:          metadata.TupleElementNamesAttribute,
		TupleElementNames: names,
	})
}

// Param builds a parameter
func Param(name string, t metadata.TypeID) metadata.Parameter {
	return metadata.Parameter{Name: name, Type: t}
}

// OutParam builds an out parameter over a by-ref type
func OutParam(name string, byRef metadata.TypeID) metadata.Parameter {
	return metadata.Parameter{Name: name, Type: byRef, IsOut: true}
}

// Frame builds a raw frame for a method
func Frame(m metadata.MethodID) metadata.Frame {
	return metadata.Frame{Method: m}
}

// FrameAt builds a raw frame with a source location
func FrameAt(m metadata.MethodID, file string, line int) metadata.Frame {
	return metadata.Frame{Method: m, File: file, Line: line}
}
