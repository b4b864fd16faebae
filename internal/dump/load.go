package dump

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	dmerrors "github.com/standardbeagle/demystify/internal/errors"
	"github.com/standardbeagle/demystify/internal/metadata"
	"github.com/standardbeagle/demystify/internal/render"
)

// Dump is a loaded document: its metadata and the exceptions to render
type Dump struct {
	Path       string
	Store      *metadata.Store
	Exceptions []*metadata.Exception
}

// Load reads and validates a dump file
func Load(path string) (*Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dmerrors.NewDumpError(path, err)
	}
	return Parse(data, path)
}

// Parse decodes and validates a dump document. path only labels errors.
func Parse(data []byte, path string) (*Dump, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, dmerrors.NewDumpError(path, errors.New("empty document"))
	}

	var doc Document
	if err := decodeKnownFields(data, &doc); err != nil {
		return nil, dmerrors.NewDumpError(path, err)
	}
	return Build(&doc, path)
}

func decodeKnownFields(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	var extra interface{}
	if err := dec.Decode(&extra); err == nil {
		return fmt.Errorf("multiple YAML documents are not supported")
	} else if !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed after first YAML document: %w", err)
	}
	return nil
}

// builder converts a document, collecting one error per invalid field
type builder struct {
	path  string
	store *metadata.Store
	errs  []error

	// ids keep declaration order for suggestions
	typeIDs   []string
	methodIDs []string
	types     map[string]bool
	methods   map[string]bool
}

// Build validates a decoded document and loads it into a new store. Every
// type and method reference must resolve; language primitives such as
// System.Int32 may be used without being declared.
func Build(doc *Document, path string) (*Dump, error) {
	b := &builder{
		path:    path,
		store:   metadata.NewStore(),
		types:   make(map[string]bool, len(doc.Types)),
		methods: make(map[string]bool, len(doc.Methods)),
	}

	b.declare(doc)
	for i := range doc.Types {
		b.addType(fmt.Sprintf("types[%d]", i), &doc.Types[i])
	}
	for i := range doc.Methods {
		b.addMethod(fmt.Sprintf("methods[%d]", i), &doc.Methods[i])
	}

	d := &Dump{Path: path, Store: b.store}
	for i := range doc.Exceptions {
		d.Exceptions = append(d.Exceptions, b.exception(fmt.Sprintf("exceptions[%d]", i), &doc.Exceptions[i]))
	}

	if err := dmerrors.NewMultiError(b.errs).ErrOrNil(); err != nil {
		return nil, err
	}
	return d, nil
}

func (b *builder) fail(field string, err error) {
	b.errs = append(b.errs, dmerrors.NewDumpError(b.path, err).WithField(field))
}

// declare registers identities first so references may point forward
func (b *builder) declare(doc *Document) {
	for i, t := range doc.Types {
		field := fmt.Sprintf("types[%d].id", i)
		switch {
		case t.ID == "":
			b.fail(field, errors.New("missing required field"))
		case b.types[t.ID]:
			b.fail(field, fmt.Errorf("duplicate type %q", t.ID))
		default:
			b.types[t.ID] = true
			b.typeIDs = append(b.typeIDs, t.ID)
		}
	}

	for i, m := range doc.Methods {
		field := fmt.Sprintf("methods[%d].id", i)
		switch {
		case m.ID == "":
			b.fail(field, errors.New("missing required field"))
		case b.methods[m.ID]:
			b.fail(field, fmt.Errorf("duplicate method %q", m.ID))
		default:
			b.methods[m.ID] = true
			b.methodIDs = append(b.methodIDs, m.ID)
		}
	}
}

// typeRef validates an optional type reference
func (b *builder) typeRef(field, id string) metadata.TypeID {
	if id == "" || b.types[id] {
		return metadata.TypeID(id)
	}
	if render.IsBuiltin(id) {
		b.store.AddType(metadata.Type{
			ID:        metadata.TypeID(id),
			Namespace: "System",
			Name:      strings.TrimPrefix(id, "System."),
		})
		b.types[id] = true
		return metadata.TypeID(id)
	}
	b.fail(field, fmt.Errorf("unknown type %q%s", id, suggest(id, b.typeIDs)))
	return metadata.TypeID(id)
}

func (b *builder) typeRefs(field string, ids []string) []metadata.TypeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]metadata.TypeID, len(ids))
	for i, id := range ids {
		out[i] = b.typeRef(fmt.Sprintf("%s[%d]", field, i), id)
	}
	return out
}

// methodRef validates an optional method reference
func (b *builder) methodRef(field, id string) metadata.MethodID {
	if id != "" && !b.methods[id] {
		b.fail(field, fmt.Errorf("unknown method %q%s", id, suggest(id, b.methodIDs)))
	}
	return metadata.MethodID(id)
}

func (b *builder) attributes(field string, target metadata.AttributeTarget, docs []AttributeDoc) {
	for i, a := range docs {
		f := fmt.Sprintf("%s[%d]", field, i)
		if a.Type == "" {
			b.fail(f+".type", errors.New("missing required field"))
			continue
		}
		b.store.AddAttribute(target, metadata.Attribute{
			TypeName:          a.Type,
			StateMachineType:  b.typeRef(f+".state_machine_type", a.StateMachineType),
			TupleElementNames: a.TupleElementNames,
		})
	}
}

func (b *builder) addType(field string, t *TypeDoc) {
	if t.ID == "" {
		return
	}
	if t.Name == "" {
		b.fail(field+".name", errors.New("missing required field"))
	}
	if t.ArrayRank < 0 {
		b.fail(field+".array_rank", fmt.Errorf("negative rank %d", t.ArrayRank))
	}

	id := b.store.AddType(metadata.Type{
		ID:                      metadata.TypeID(t.ID),
		Namespace:               t.Namespace,
		Name:                    t.Name,
		FullName:                t.FullName,
		DeclaringType:           b.typeRef(field+".declaring_type", t.DeclaringType),
		GenericArguments:        b.typeRefs(field+".generic_arguments", t.GenericArguments),
		IsGenericParameter:      t.GenericParameter,
		IsGenericTypeDefinition: t.GenericDefinition,
		ElementType:             b.typeRef(field+".element_type", t.ElementType),
		ArrayRank:               t.ArrayRank,
		IsByRef:                 t.ByRef,
		Interfaces:              t.Interfaces,
	})
	b.attributes(field+".attributes", metadata.TypeTarget(id), t.Attributes)

	for i, f := range t.DelegateFields {
		ff := fmt.Sprintf("%s.delegate_fields[%d]", field, i)
		b.store.AddDelegateField(id, metadata.DelegateField{
			Name:       f.Name,
			Method:     b.methodRef(ff+".method", f.Method),
			TargetType: b.typeRef(ff+".target_type", f.TargetType),
		})
	}
}

func parseKind(s string) (metadata.MethodKind, bool) {
	switch s {
	case "", "method":
		return metadata.MethodKindMethod, true
	case "constructor":
		return metadata.MethodKindConstructor, true
	case "type_initializer":
		return metadata.MethodKindTypeInitializer, true
	}
	return metadata.MethodKindMethod, false
}

func (b *builder) addMethod(field string, m *MethodDoc) {
	if m.ID == "" {
		return
	}
	if m.Name == "" {
		b.fail(field+".name", errors.New("missing required field"))
	}
	kind, ok := parseKind(m.Kind)
	if !ok {
		b.fail(field+".kind", fmt.Errorf("unknown kind %q (expected method, constructor or type_initializer)", m.Kind))
	}

	params := make([]metadata.Parameter, len(m.Parameters))
	for i, p := range m.Parameters {
		params[i] = metadata.Parameter{
			Name:  p.Name,
			Type:  b.typeRef(fmt.Sprintf("%s.parameters[%d].type", field, i), p.Type),
			IsOut: p.Out,
		}
	}

	id := b.store.AddMethod(metadata.Method{
		ID:               metadata.MethodID(m.ID),
		Name:             m.Name,
		DeclaringType:    b.typeRef(field+".declaring_type", m.DeclaringType),
		Kind:             kind,
		Parameters:       params,
		ReturnType:       b.typeRef(field+".return_type", m.ReturnType),
		GenericArguments: b.typeRefs(field+".generic_arguments", m.GenericArguments),
	})

	b.attributes(field+".attributes", metadata.MethodTarget(id), m.Attributes)
	b.attributes(field+".return_attributes", metadata.ReturnTarget(id), m.ReturnAttributes)
	for i, p := range m.Parameters {
		b.attributes(fmt.Sprintf("%s.parameters[%d].attributes", field, i), metadata.ParameterTarget(id, i), p.Attributes)
	}

	if len(m.Locals) > 0 {
		b.store.SetLocals(id, b.typeRefs(field+".locals", m.Locals)...)
	}
	if len(m.Body) > 0 {
		instrs := make([]metadata.Instruction, len(m.Body))
		for i, ins := range m.Body {
			instrs[i] = metadata.Instruction{
				Offset: ins.Offset,
				OpCode: ins.OpCode,
				Method: b.methodRef(fmt.Sprintf("%s.body[%d].method", field, i), ins.Method),
			}
		}
		b.store.SetInstructions(id, instrs...)
	}
}

func (b *builder) frames(field string, docs []FrameDoc) []metadata.Frame {
	if len(docs) == 0 {
		return nil
	}
	out := make([]metadata.Frame, len(docs))
	for i, f := range docs {
		out[i] = metadata.Frame{
			Method: b.methodRef(fmt.Sprintf("%s[%d].method", field, i), f.Method),
			File:   f.File,
			Line:   f.Line,
			Column: f.Column,
			Raw:    f.Raw,
		}
	}
	return out
}

func (b *builder) captured(field string, docs []TraceDoc) []metadata.Trace {
	if len(docs) == 0 {
		return nil
	}
	out := make([]metadata.Trace, len(docs))
	for i, t := range docs {
		f := fmt.Sprintf("%s[%d]", field, i)
		out[i] = metadata.Trace{
			Frames:   b.frames(f+".frames", t.Frames),
			Captured: b.captured(f+".captured", t.Captured),
		}
	}
	return out
}

func (b *builder) exception(field string, e *ExceptionDoc) *metadata.Exception {
	if e.Type == "" {
		b.fail(field+".type", errors.New("missing required field"))
	}
	ex := &metadata.Exception{
		TypeName: e.Type,
		Message:  e.Message,
		Trace: metadata.Trace{
			Frames:   b.frames(field+".frames", e.Frames),
			Captured: b.captured(field+".captured", e.Captured),
		},
	}
	if e.Inner != nil {
		ex.Inner = b.exception(field+".inner", e.Inner)
	}
	for i := range e.Aggregated {
		ex.Aggregated = append(ex.Aggregated, b.exception(fmt.Sprintf("%s.aggregated[%d]", field, i), &e.Aggregated[i]))
	}
	return ex
}
