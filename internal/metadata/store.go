package metadata

import (
	"fmt"
	"sort"
	"sync"
)

// Store is an in-memory Provider populated from dump documents or tests
type Store struct {
	mu sync.RWMutex

	types        map[TypeID]*Type
	methods      map[MethodID]*Method
	declMethods  map[TypeID][]MethodID
	declCtors    map[TypeID][]MethodID
	attributes   map[AttributeTarget][]Attribute
	locals       map[MethodID][]TypeID
	instructions map[MethodID][]Instruction
	delegates    map[TypeID][]DelegateField
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		types:        make(map[TypeID]*Type),
		methods:      make(map[MethodID]*Method),
		declMethods:  make(map[TypeID][]MethodID),
		declCtors:    make(map[TypeID][]MethodID),
		attributes:   make(map[AttributeTarget][]Attribute),
		locals:       make(map[MethodID][]TypeID),
		instructions: make(map[MethodID][]Instruction),
		delegates:    make(map[TypeID][]DelegateField),
	}
}

// AddType registers a type, replacing any previous definition with the same ID
func (s *Store) AddType(t Type) TypeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := t
	s.types[t.ID] = &stored
	return t.ID
}

// AddMethod registers a method and records it as declared on its declaring type.
// Declaration order is preserved for candidate searches.
func (s *Store) AddMethod(m Method) MethodID {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.methods[m.ID]
	stored := m
	s.methods[m.ID] = &stored
	if existed || m.DeclaringType == "" {
		return m.ID
	}

	if m.IsConstructor() {
		s.declCtors[m.DeclaringType] = append(s.declCtors[m.DeclaringType], m.ID)
	} else {
		s.declMethods[m.DeclaringType] = append(s.declMethods[m.DeclaringType], m.ID)
	}
	return m.ID
}

// AddAttribute attaches an attribute to a type, method or parameter
func (s *Store) AddAttribute(target AttributeTarget, attr Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes[target] = append(s.attributes[target], attr)
}

// SetLocals records the declared local variable types of a method body
func (s *Store) SetLocals(id MethodID, locals ...TypeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locals[id] = append([]TypeID(nil), locals...)
}

// SetInstructions records the decoded instruction stream of a method body
func (s *Store) SetInstructions(id MethodID, instrs ...Instruction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instructions[id] = append([]Instruction(nil), instrs...)
}

// AddDelegateField records a static delegate field of a type
func (s *Store) AddDelegateField(id TypeID, field DelegateField) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegates[id] = append(s.delegates[id], field)
}

// Type implements Provider. The returned value is a copy with FullName filled in.
func (s *Store) Type(id TypeID) (*Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, id)
	}
	out := *t
	if out.FullName == "" {
		out.FullName = s.fullNameLocked(t, 0)
	}
	return &out, nil
}

// maxNesting bounds full-name construction against cyclic nesting in bad input
const maxNesting = 64

func (s *Store) fullNameLocked(t *Type, depth int) string {
	if t.FullName != "" {
		return t.FullName
	}
	if t.IsGenericParameter {
		return t.Name
	}
	if t.DeclaringType != "" && depth < maxNesting {
		if outer, ok := s.types[t.DeclaringType]; ok {
			return s.fullNameLocked(outer, depth+1) + "+" + t.Name
		}
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Method implements Provider
func (s *Store) Method(id MethodID) (*Method, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.methods[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, id)
	}
	return m, nil
}

// DeclaredMethods implements Provider
func (s *Store) DeclaredMethods(id TypeID) ([]MethodID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.types[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, id)
	}
	return append([]MethodID(nil), s.declMethods[id]...), nil
}

// DeclaredConstructors implements Provider
func (s *Store) DeclaredConstructors(id TypeID) ([]MethodID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.types[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, id)
	}
	return append([]MethodID(nil), s.declCtors[id]...), nil
}

// Attributes implements Provider
func (s *Store) Attributes(target AttributeTarget) ([]Attribute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attributes[target], nil
}

// LocalVariables implements Provider
func (s *Store) LocalVariables(id MethodID) ([]TypeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locals[id], nil
}

// Instructions implements Provider. A method without a recorded body yields no instructions.
func (s *Store) Instructions(id MethodID) ([]Instruction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instructions[id], nil
}

// StaticDelegateFields implements DelegateFieldProvider
func (s *Store) StaticDelegateFields(id TypeID) ([]DelegateField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delegates[id], nil
}

// TypeIDs returns all registered type IDs in sorted order
func (s *Store) TypeIDs() []TypeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]TypeID, 0, len(s.types))
	for id := range s.types {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MethodIDs returns all registered method IDs in sorted order
func (s *Store) MethodIDs() []MethodID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]MethodID, 0, len(s.methods))
	for id := range s.methods {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HasType reports whether a type is registered
func (s *Store) HasType(id TypeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[id]
	return ok
}

// HasMethod reports whether a method is registered
func (s *Store) HasMethod(id MethodID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.methods[id]
	return ok
}

var (
	_ Provider              = (*Store)(nil)
	_ DelegateFieldProvider = (*Store)(nil)
)
