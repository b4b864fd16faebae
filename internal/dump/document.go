// Package dump loads trace dump documents: YAML descriptions of the metadata
// a host captured together with the exceptions to demystify.
//
//	types:
//	  - id: Game.Player
//	    namespace: Game
//	    name: Player
//	methods:
//	  - id: Game.Player::Update
//	    name: Update
//	    declaring_type: Game.Player
//	    return_type: System.Void
//	exceptions:
//	  - type: System.InvalidOperationException
//	    message: boom
//	    frames:
//	      - method: Game.Player::Update
//	        file: Assets/Player.cs
//	        line: 42
//
// JSON documents are accepted as the YAML subset they are.
package dump

// Document is the on-disk shape of a dump
type Document struct {
	Types      []TypeDoc      `yaml:"types"`
	Methods    []MethodDoc    `yaml:"methods"`
	Exceptions []ExceptionDoc `yaml:"exceptions"`
}

type AttributeDoc struct {
	Type              string   `yaml:"type"`
	StateMachineType  string   `yaml:"state_machine_type,omitempty"`
	TupleElementNames []string `yaml:"tuple_element_names,omitempty"`
}

type DelegateFieldDoc struct {
	Name       string `yaml:"name"`
	Method     string `yaml:"method"`
	TargetType string `yaml:"target_type"`
}

type TypeDoc struct {
	ID                string             `yaml:"id"`
	Namespace         string             `yaml:"namespace,omitempty"`
	Name              string             `yaml:"name"`
	FullName          string             `yaml:"full_name,omitempty"`
	DeclaringType     string             `yaml:"declaring_type,omitempty"`
	GenericArguments  []string           `yaml:"generic_arguments,omitempty"`
	GenericParameter  bool               `yaml:"generic_parameter,omitempty"`
	GenericDefinition bool               `yaml:"generic_definition,omitempty"`
	ElementType       string             `yaml:"element_type,omitempty"`
	ArrayRank         int                `yaml:"array_rank,omitempty"`
	ByRef             bool               `yaml:"by_ref,omitempty"`
	Interfaces        []string           `yaml:"interfaces,omitempty"`
	Attributes        []AttributeDoc     `yaml:"attributes,omitempty"`
	DelegateFields    []DelegateFieldDoc `yaml:"delegate_fields,omitempty"`
}

type ParameterDoc struct {
	Name       string         `yaml:"name,omitempty"`
	Type       string         `yaml:"type"`
	Out        bool           `yaml:"out,omitempty"`
	Attributes []AttributeDoc `yaml:"attributes,omitempty"`
}

type InstructionDoc struct {
	Offset int    `yaml:"offset"`
	OpCode string `yaml:"opcode"`
	Method string `yaml:"method,omitempty"`
}

type MethodDoc struct {
	ID               string           `yaml:"id"`
	Name             string           `yaml:"name"`
	DeclaringType    string           `yaml:"declaring_type,omitempty"`
	Kind             string           `yaml:"kind,omitempty"` // method (default), constructor, type_initializer
	ReturnType       string           `yaml:"return_type,omitempty"`
	GenericArguments []string         `yaml:"generic_arguments,omitempty"`
	Parameters       []ParameterDoc   `yaml:"parameters,omitempty"`
	Attributes       []AttributeDoc   `yaml:"attributes,omitempty"`
	ReturnAttributes []AttributeDoc   `yaml:"return_attributes,omitempty"`
	Locals           []string         `yaml:"locals,omitempty"`
	Body             []InstructionDoc `yaml:"body,omitempty"`
}

type FrameDoc struct {
	Method string `yaml:"method,omitempty"`
	File   string `yaml:"file,omitempty"`
	Line   int    `yaml:"line,omitempty"`
	Column int    `yaml:"column,omitempty"`
	Raw    string `yaml:"raw,omitempty"`
}

// TraceDoc is a captured trace recorded before a rethrow
type TraceDoc struct {
	Frames   []FrameDoc `yaml:"frames"`
	Captured []TraceDoc `yaml:"captured,omitempty"`
}

type ExceptionDoc struct {
	Type       string         `yaml:"type"`
	Message    string         `yaml:"message,omitempty"`
	Frames     []FrameDoc     `yaml:"frames,omitempty"`
	Captured   []TraceDoc     `yaml:"captured,omitempty"`
	Inner      *ExceptionDoc  `yaml:"inner,omitempty"`
	Aggregated []ExceptionDoc `yaml:"aggregated,omitempty"`
}
