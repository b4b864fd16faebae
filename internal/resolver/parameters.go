package resolver

import (
	"strings"

	"github.com/standardbeagle/demystify/internal/metadata"
)

// parameters resolves the formal parameters of m. Sub-method lists drop
// unnamed and compiler-generated parameters.
func (r *Resolver) parameters(m *metadata.Method, sub bool) []ResolvedParameter {
	if len(m.Parameters) == 0 {
		return nil
	}
	out := make([]ResolvedParameter, 0, len(m.Parameters))
	for i, p := range m.Parameters {
		if sub && (p.Name == "" || strings.HasPrefix(p.Name, "<")) {
			continue
		}
		out = append(out, r.parameter(metadata.ParameterTarget(m.ID, i), p))
	}
	return out
}

func (r *Resolver) returnParameter(m *metadata.Method) *ResolvedParameter {
	if m.IsConstructor() || m.ReturnType == "" {
		return nil
	}
	rp := r.parameter(metadata.ReturnTarget(m.ID), metadata.Parameter{Type: m.ReturnType})
	if r.config.AsyncPrefix && r.hasAttribute(metadata.MethodTarget(m.ID), metadata.AsyncStateMachineAttribute) {
		rp.Prefix2 = "async"
	}
	return &rp
}

func (r *Resolver) parameter(target metadata.AttributeTarget, p metadata.Parameter) ResolvedParameter {
	rp := ResolvedParameter{Name: p.Name, Type: p.Type}

	t, err := r.provider.Type(p.Type)
	if err != nil {
		if p.IsOut {
			rp.Prefix = "out"
		}
		return rp
	}

	switch {
	case p.IsOut:
		rp.Prefix = "out"
	case t.IsByRef:
		if r.hasAttribute(target, metadata.IsReadOnlyAttribute) {
			rp.Prefix = "in"
		} else {
			rp.Prefix = "ref"
		}
	}

	if t.IsGeneric() {
		if attrs, err := r.Attributes(target); err == nil {
			for _, attr := range attrs {
				if attr.TypeName == metadata.TupleElementNamesAttribute {
					rp.IsTuple = true
					rp.TupleNames = attr.TupleElementNames
				}
			}
		}
	}

	if t.IsByRef && t.ElementType != "" {
		rp.Type = t.ElementType
	}
	return rp
}
