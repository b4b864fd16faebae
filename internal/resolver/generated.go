package resolver

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/demystify/internal/debug"
	dmerrors "github.com/standardbeagle/demystify/internal/errors"
	"github.com/standardbeagle/demystify/internal/metadata"
	"github.com/standardbeagle/demystify/internal/naming"
)

// generatedMatch is the outcome of resolving a generated name. method is nil
// when no candidate was found.
type generatedMatch struct {
	method    *metadata.Method
	declType  metadata.TypeID
	enclosing string
	subName   string
	hasSub    bool
	kind      naming.Kind
	ordinal   *int
}

// resolveGenerated parses the name of target and searches the declaring type
// and its enclosing types for the method that produced it. parsed is false
// when the name is not generated.
func (r *Resolver) resolveGenerated(target *metadata.Method) (m generatedMatch, parsed bool) {
	p, ok := naming.Parse(target.Name)
	if !ok {
		return m, false
	}

	m.kind = p.Kind
	m.enclosing = p.Enclosing()
	m.subName, m.hasSub = p.SubName()
	m.declType = target.DeclaringType
	if m.declType == "" {
		return m, true
	}

	hint := p.MatchHint()
	dt := m.declType
	for level := 0; level <= r.config.MaxDepth; level++ {
		if level > 0 {
			t, err := r.provider.Type(dt)
			if err != nil || t.DeclaringType == "" {
				return m, true
			}
			dt = t.DeclaringType
		}

		for _, ctors := range []bool{false, true} {
			candidates := r.candidates(dt, m.enclosing, ctors)
			if found, ordinal := r.pick(candidates, p.Kind, hint, target); found != nil {
				m.method, m.declType, m.ordinal = found, found.DeclaringType, ordinal
				return m, true
			}
		}

		// a display class's own type initializer shares the name, so only
		// ancestors accept a type initializer without a body match
		if level > 0 && m.enclosing == metadata.TypeInitializerName {
			for _, c := range r.candidates(dt, m.enclosing, true) {
				if c.Kind == metadata.MethodKindTypeInitializer {
					m.method, m.declType = c, dt
					return m, true
				}
			}
		}
	}

	debug.LogResolve("no candidate for %s within %d enclosing types\n", target.ID, r.config.MaxDepth)
	return m, true
}

// candidates returns the declared methods or constructors of a type named name
func (r *Resolver) candidates(id metadata.TypeID, name string, ctors bool) []*metadata.Method {
	var ids []metadata.MethodID
	var err error
	if ctors {
		ids, err = r.provider.DeclaredConstructors(id)
	} else {
		ids, err = r.provider.DeclaredMethods(id)
	}
	if err != nil {
		debug.LogResolve("%v\n", dmerrors.NewMetadataError("declared_members", string(id), err))
		return nil
	}

	var out []*metadata.Method
	for _, mid := range ids {
		m, err := r.provider.Method(mid)
		if err != nil {
			continue
		}
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// pick returns the first candidate whose body references target. Lambdas
// first try the candidate's locals for the display class. A candidate whose
// body cannot be read is skipped.
func (r *Resolver) pick(candidates []*metadata.Method, kind naming.Kind, hint string, target *metadata.Method) (*metadata.Method, *int) {
	for _, c := range candidates {
		matched, err := r.references(c, kind, hint, target)
		if err != nil {
			debug.LogResolve("%v\n", dmerrors.NewResolutionError(string(target.ID), "body scan", err).WithCandidate(string(c.ID)))
			continue
		}
		if !matched {
			continue
		}
		var ordinal *int
		if kind == naming.LambdaMethod {
			ordinal = r.ordinal(target)
		}
		return c, ordinal
	}
	return nil, nil
}

func (r *Resolver) references(c *metadata.Method, kind naming.Kind, hint string, target *metadata.Method) (matched bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			matched, err = false, fmt.Errorf("panic while decoding body: %v", rec)
		}
	}()

	if kind == naming.LambdaMethod {
		locals, lerr := r.provider.LocalVariables(c.ID)
		if lerr == nil {
			for _, local := range locals {
				if local == target.DeclaringType {
					return true, nil
				}
			}
		}
	}

	instrs, err := r.provider.Instructions(c.ID)
	if err != nil {
		return false, err
	}
	for _, ins := range instrs {
		if ins.Method == "" {
			continue
		}
		if ins.Method == target.ID {
			return true, nil
		}
		if hint == "" {
			continue
		}
		if op, err := r.provider.Method(ins.Method); err == nil && strings.Contains(op.Name, hint) {
			return true, nil
		}
	}
	return false, nil
}

// ordinal numbers a lambda among siblings sharing its stem. A lambda without
// siblings needs no ordinal.
func (r *Resolver) ordinal(lambda *metadata.Method) *int {
	if !r.config.LambdaOrdinals {
		return nil
	}
	stem, index, ok := naming.LambdaStem(lambda.Name)
	if !ok {
		return nil
	}

	ids, err := r.provider.DeclaredMethods(lambda.DeclaringType)
	if err != nil {
		return nil
	}
	count := 0
	for _, id := range ids {
		m, err := r.provider.Method(id)
		if err != nil {
			continue
		}
		if len(m.Name) > len(stem) && strings.HasPrefix(m.Name, stem) {
			count++
			if count > 1 {
				return &index
			}
		}
	}
	return nil
}
