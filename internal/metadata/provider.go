package metadata

import (
	"errors"
	"strconv"
)

// Lookup failures reported by providers
var (
	ErrTypeNotFound   = errors.New("type not found")
	ErrMethodNotFound = errors.New("method not found")
)

// Provider is the capability the demystifier needs from the host's
// introspection facility. Implementations must be safe for concurrent use.
//
// Any call may fail (reflection-only contexts, stripped bodies); callers treat
// failures as "metadata unavailable" and degrade rather than abort.
type Provider interface {
	Type(id TypeID) (*Type, error)
	Method(id MethodID) (*Method, error)

	// DeclaredMethods returns the ordinary methods declared directly on a type,
	// static and instance, any visibility, excluding inherited ones.
	DeclaredMethods(id TypeID) ([]MethodID, error)
	// DeclaredConstructors returns instance constructors and the type initializer
	DeclaredConstructors(id TypeID) ([]MethodID, error)

	Attributes(target AttributeTarget) ([]Attribute, error)

	// LocalVariables returns the declared local variable types of a method body
	LocalVariables(id MethodID) ([]TypeID, error)
	// Instructions returns the decoded instruction stream of a method body
	Instructions(id MethodID) ([]Instruction, error)
}

// DelegateFieldProvider is an optional capability exposing the static delegate
// fields of a type, used to name lambdas cached by a type initializer.
type DelegateFieldProvider interface {
	StaticDelegateFields(id TypeID) ([]DelegateField, error)
}

// AttributeTarget identifies anything that can carry attributes
type AttributeTarget string

// TypeTarget addresses the attributes of a type
func TypeTarget(id TypeID) AttributeTarget {
	return AttributeTarget("type:" + string(id))
}

// MethodTarget addresses the attributes of a method
func MethodTarget(id MethodID) AttributeTarget {
	return AttributeTarget("method:" + string(id))
}

// ParameterTarget addresses the attributes of the index-th parameter of a method
func ParameterTarget(id MethodID, index int) AttributeTarget {
	return AttributeTarget("param:" + string(id) + "#" + strconv.Itoa(index))
}

// ReturnTarget addresses the attributes of a method's return parameter
func ReturnTarget(id MethodID) AttributeTarget {
	return ParameterTarget(id, -1)
}
