package resolver

import (
	"github.com/standardbeagle/demystify/internal/metadata"
	"github.com/standardbeagle/demystify/internal/naming"
)

// ResolvedParameter is one parameter as it should be rendered
type ResolvedParameter struct {
	Name string
	// Type is the referenced type for by-ref parameters
	Type metadata.TypeID
	// Prefix is "", "ref", "out" or "in"
	Prefix string
	// Prefix2 precedes Prefix and is only used on return parameters
	Prefix2 string

	// IsTuple marks a tuple-shaped parameter. TupleNames may still be empty
	// when the host carries no element names.
	IsTuple    bool
	TupleNames []string
}

// ResolvedMethod is the logical method behind a raw frame. Values are shared
// through the cache and must not be modified after construction.
type ResolvedMethod struct {
	// Method is the logical method, empty when resolution failed and the
	// parameter list is unknown
	Method        metadata.MethodID
	DeclaringType metadata.TypeID
	Name          string

	Kind     naming.Kind
	IsLambda bool
	// Ordinal disambiguates sibling lambdas sharing a generated-name stem
	Ordinal *int

	ReturnParameter  *ResolvedParameter
	GenericArguments []metadata.TypeID
	Parameters       []ResolvedParameter

	// SubMethodBase is the method the frame actually entered when it differs
	// from Method (the lambda, local function or state-machine step)
	SubMethodBase       metadata.MethodID
	SubMethod           string
	SubMethodParameters []ResolvedParameter
	// SubMethodReturnType is empty when unknown
	SubMethodReturnType metadata.TypeID
}

// HasSubMethod reports whether the method renders with a "+" suffix
func (m *ResolvedMethod) HasSubMethod() bool {
	return m.SubMethod != "" || m.IsLambda
}

// Resolved reports whether the logical method was found
func (m *ResolvedMethod) Resolved() bool {
	return m.Method != ""
}

// ShowsSubSignature reports whether the sub-method suffix carries a return
// type and ordinal, which is the case for lambdas and local functions
func (m *ResolvedMethod) ShowsSubSignature() bool {
	return m.IsLambda || m.Kind == naming.LocalFunction
}
