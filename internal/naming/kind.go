// Package naming recognizes compiler-generated member names of the form
// [CS$]<middle>K[suffix] and extracts the enclosing method name, the
// generated-name kind and, for local functions, the declared name.
package naming

// Kind tags why a name was generated. The value is the tag character
// that follows the closing bracket in the generated name.
type Kind byte

const (
	None Kind = 0

	StateMachineStateField           Kind = '1'
	IteratorCurrentBackingField      Kind = '2'
	StateMachineParameterProxyField  Kind = '3'
	ThisProxyField                   Kind = '4'
	HoistedLocalField                Kind = '5'
	ReusableHoistedLocalField        Kind = '7'
	DisplayClassLocalOrField         Kind = '8'
	LambdaCacheField                 Kind = '9'
	LambdaMethod                     Kind = 'b'
	LambdaDisplayClass               Kind = 'c'
	StateMachineType                 Kind = 'd'
	FixedBufferField                 Kind = 'e'
	AnonymousType                    Kind = 'f'
	LocalFunction                    Kind = 'g'
	TransparentIdentifier            Kind = 'h'
	AnonymousTypeField               Kind = 'i'
	AutoPropertyBackingField         Kind = 'k'
	IteratorCurrentThreadIDField     Kind = 'l'
	IteratorFinallyMethod            Kind = 'm'
	BaseMethodWrapper                Kind = 'n'
	DynamicCallSiteContainerType     Kind = 'o'
	DynamicCallSiteField             Kind = 'p'
	HoistedSynthesizedLocalField     Kind = 's'
	AsyncBuilderField                Kind = 't'
	AwaiterField                     Kind = 'u'
)

var kindNames = map[Kind]string{
	None:                            "none",
	StateMachineStateField:          "state_machine_state_field",
	IteratorCurrentBackingField:     "iterator_current_backing_field",
	StateMachineParameterProxyField: "state_machine_parameter_proxy_field",
	ThisProxyField:                  "this_proxy_field",
	HoistedLocalField:               "hoisted_local_field",
	ReusableHoistedLocalField:       "reusable_hoisted_local_field",
	DisplayClassLocalOrField:        "display_class_local_or_field",
	LambdaCacheField:                "lambda_cache_field",
	LambdaMethod:                    "lambda_method",
	LambdaDisplayClass:              "lambda_display_class",
	StateMachineType:                "state_machine_type",
	FixedBufferField:                "fixed_buffer_field",
	AnonymousType:                   "anonymous_type",
	LocalFunction:                   "local_function",
	TransparentIdentifier:           "transparent_identifier",
	AnonymousTypeField:              "anonymous_type_field",
	AutoPropertyBackingField:        "auto_property_backing_field",
	IteratorCurrentThreadIDField:    "iterator_current_thread_id_field",
	IteratorFinallyMethod:           "iterator_finally_method",
	BaseMethodWrapper:               "base_method_wrapper",
	DynamicCallSiteContainerType:    "dynamic_call_site_container_type",
	DynamicCallSiteField:            "dynamic_call_site_field",
	HoistedSynthesizedLocalField:    "hoisted_synthesized_local_field",
	AsyncBuilderField:               "async_builder_field",
	AwaiterField:                    "awaiter_field",
}

// String returns the snake_case name of the kind. Tag characters the
// grammar accepts without a dedicated meaning render as "unknown_<c>".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown_" + string(rune(k))
}

// Known reports whether the kind has a dedicated meaning
func (k Kind) Known() bool {
	_, ok := kindNames[k]
	return ok && k != None
}

// isKindChar reports whether c may follow the closing bracket. '0' is not special.
func isKindChar(c byte) bool {
	return (c >= '1' && c <= '9') || (c >= 'a' && c <= 'z')
}
