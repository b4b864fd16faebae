// Package resolver maps methods entered by raw frames back to the source-level
// methods that produced them. Every lookup is best effort: metadata failures
// degrade the result and are never returned to the caller.
package resolver

import (
	"strings"

	"github.com/standardbeagle/demystify/internal/cache"
	"github.com/standardbeagle/demystify/internal/debug"
	dmerrors "github.com/standardbeagle/demystify/internal/errors"
	"github.com/standardbeagle/demystify/internal/metadata"
	"github.com/standardbeagle/demystify/internal/naming"
)

// DefaultMaxDepth bounds the walk through enclosing types
const DefaultMaxDepth = 10

// stateMachineStep is the name of the method a state machine runs per step
const stateMachineStep = "MoveNext"

// Config controls resolution heuristics
type Config struct {
	// MaxDepth is how many enclosing types are searched after the declaring type
	MaxDepth int
	// LambdaOrdinals enables ordinals for sibling lambdas sharing a stem
	LambdaOrdinals bool
	// StateMachines maps state-machine steps to the methods owning them
	StateMachines bool
	// TypeInitializerDelegates renames lambdas cached in static delegate fields
	TypeInitializerDelegates bool
	// AsyncPrefix marks return parameters of async methods with "async"
	AsyncPrefix bool
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MaxDepth:                 DefaultMaxDepth,
		LambdaOrdinals:           true,
		StateMachines:            true,
		TypeInitializerDelegates: true,
	}
}

// Resolver resolves methods with memoization of attribute lookups and results
type Resolver struct {
	provider  metadata.Provider
	delegates metadata.DelegateFieldProvider
	config    Config

	methods    *cache.Memo[*ResolvedMethod]
	attributes *cache.Memo[[]metadata.Attribute]
}

// New creates a resolver. When the provider also implements
// metadata.DelegateFieldProvider, static delegate fields are consulted.
func New(provider metadata.Provider, config Config, cacheConfig cache.Config) *Resolver {
	if config.MaxDepth < 0 {
		config.MaxDepth = 0
	}
	r := &Resolver{
		provider:   provider,
		config:     config,
		methods:    cache.NewMemo[*ResolvedMethod](cacheConfig),
		attributes: cache.NewMemo[[]metadata.Attribute](cacheConfig),
	}
	if d, ok := provider.(metadata.DelegateFieldProvider); ok {
		r.delegates = d
	}
	return r
}

// Provider returns the underlying metadata provider
func (r *Resolver) Provider() metadata.Provider {
	return r.provider
}

// Attributes returns the attributes of target through the attribute cache.
// Failed lookups are not cached.
func (r *Resolver) Attributes(target metadata.AttributeTarget) ([]metadata.Attribute, error) {
	key := string(target)
	if attrs, ok := r.attributes.Get(key); ok {
		return attrs, nil
	}
	attrs, err := r.provider.Attributes(target)
	if err != nil {
		return nil, dmerrors.NewMetadataError("attributes", key, err)
	}
	r.attributes.Put(key, attrs)
	return attrs, nil
}

// hasAttribute treats lookup failures as absent
func (r *Resolver) hasAttribute(target metadata.AttributeTarget, typeName string) bool {
	attrs, err := r.Attributes(target)
	if err != nil {
		debug.LogResolve("%v\n", err)
		return false
	}
	return metadata.HasAttribute(attrs, typeName)
}

// Resolve returns the logical method for id, or nil when id is empty or the
// method itself is unknown
func (r *Resolver) Resolve(id metadata.MethodID) *ResolvedMethod {
	if id == "" {
		return nil
	}
	key := string(id)
	if rm, ok := r.methods.Get(key); ok {
		return rm
	}
	rm := r.resolve(id)
	if rm != nil {
		r.methods.Put(key, rm)
	}
	return rm
}

// Stats returns combined cache statistics
func (r *Resolver) Stats() cache.Stats {
	return r.methods.Stats().Add(r.attributes.Stats())
}

func (r *Resolver) resolve(id metadata.MethodID) *ResolvedMethod {
	entered, err := r.provider.Method(id)
	if err != nil {
		debug.LogResolve("%v\n", dmerrors.NewMetadataError("method", string(id), err))
		return nil
	}

	method := entered
	declType := entered.DeclaringType
	rm := &ResolvedMethod{SubMethodBase: entered.ID}

	methodName := entered.Name
	subName, hasSub := entered.Name, true

	if r.config.StateMachines && entered.Name == stateMachineStep && r.isStateMachine(declType) {
		if owner, ok := r.resolveStateMachine(entered); ok {
			method = owner
			declType = owner.DeclaringType
		} else {
			rm.SubMethodBase = ""
			hasSub = false
		}
		methodName = method.Name
	}

	rm.Method = method.ID
	rm.Name = methodName

	if strings.IndexByte(method.Name, '<') >= 0 {
		if g, parsed := r.resolveGenerated(method); parsed {
			if g.method != nil {
				method = g.method
				methodName = method.Name
				rm.Method = method.ID
				rm.Name = methodName
				rm.Ordinal = g.ordinal
			} else {
				methodName = g.enclosing
				rm.Method = ""
			}
			declType = g.declType
			subName, hasSub = g.subName, g.hasSub
			rm.Kind = g.kind
			rm.IsLambda = g.kind == naming.LambdaMethod

			if rm.IsLambda && methodName == metadata.TypeInitializerName && r.renameCachedDelegate(rm, entered, declType) {
				method = entered
				hasSub = false
				rm.Method = entered.ID
				rm.SubMethodBase = ""
			}
		}
	}

	if hasSub && subName != methodName {
		rm.SubMethod = subName
	}
	rm.DeclaringType = declType

	if rm.Method != "" {
		rm.ReturnParameter = r.returnParameter(method)
		if method.IsGeneric() {
			rm.GenericArguments = method.GenericArguments
		}
		rm.Parameters = r.parameters(method, false)
	}

	if rm.SubMethodBase == rm.Method {
		rm.SubMethodBase = ""
	} else if rm.SubMethodBase != "" {
		if sub, err := r.provider.Method(rm.SubMethodBase); err == nil {
			rm.SubMethodParameters = r.parameters(sub, true)
			if !sub.IsConstructor() {
				rm.SubMethodReturnType = sub.ReturnType
			}
		}
	}

	debug.LogResolve("%s -> %s (kind=%s lambda=%v sub=%q)\n", id, rm.Name, rm.Kind, rm.IsLambda, rm.SubMethod)
	return rm
}

// isStateMachine reports whether a type is a compiler-generated enumerator
func (r *Resolver) isStateMachine(id metadata.TypeID) bool {
	if id == "" {
		return false
	}
	t, err := r.provider.Type(id)
	if err != nil {
		return false
	}
	return t.Implements(metadata.EnumeratorInterface) &&
		r.hasAttribute(metadata.TypeTarget(id), metadata.CompilerGeneratedAttribute)
}

// resolveStateMachine finds the method on the enclosing type whose
// state-machine attribute links to the step method's declaring type
func (r *Resolver) resolveStateMachine(step *metadata.Method) (*metadata.Method, bool) {
	smType, err := r.provider.Type(step.DeclaringType)
	if err != nil || smType.DeclaringType == "" {
		return nil, false
	}

	ids, err := r.provider.DeclaredMethods(smType.DeclaringType)
	if err != nil {
		debug.LogResolve("%v\n", dmerrors.NewMetadataError("declared_methods", string(smType.DeclaringType), err))
		return nil, false
	}

	for _, id := range ids {
		attrs, err := r.Attributes(metadata.MethodTarget(id))
		if err != nil {
			continue
		}
		for _, attr := range attrs {
			if !attr.IsStateMachineAttribute() || attr.StateMachineType != step.DeclaringType {
				continue
			}
			owner, err := r.provider.Method(id)
			if err != nil {
				return nil, false
			}
			return owner, true
		}
	}
	return nil, false
}

// renameCachedDelegate names a lambda after the static delegate field that
// holds it, reporting whether a field was found
func (r *Resolver) renameCachedDelegate(rm *ResolvedMethod, lambda *metadata.Method, declType metadata.TypeID) bool {
	if !r.config.TypeInitializerDelegates || r.delegates == nil || declType == "" {
		return false
	}
	t, err := r.provider.Type(declType)
	if err != nil || t.IsGenericTypeDefinition {
		return false
	}

	fields, err := r.delegates.StaticDelegateFields(declType)
	if err != nil {
		debug.LogResolve("%v\n", dmerrors.NewMetadataError("delegate_fields", string(declType), err))
		return false
	}
	for _, f := range fields {
		if f.Method == lambda.ID && f.TargetType == lambda.DeclaringType {
			rm.Name = f.Name
			rm.IsLambda = false
			return true
		}
	}
	return false
}
