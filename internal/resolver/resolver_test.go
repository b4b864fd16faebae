package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/demystify/internal/cache"
	"github.com/standardbeagle/demystify/internal/metadata"
	"github.com/standardbeagle/demystify/internal/naming"
	"github.com/standardbeagle/demystify/testhelpers"
)

func newResolver(p metadata.Provider) *Resolver {
	return New(p, DefaultConfig(), cache.DefaultConfig())
}

func TestResolve_PlainMethodIsUnchanged(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	update := b.Method(player, "Update", testhelpers.Void, testhelpers.Param("dt", testhelpers.Float))

	rm := newResolver(b.Store).Resolve(update)
	require.NotNil(t, rm)

	assert.Equal(t, "Update", rm.Name)
	assert.False(t, rm.IsLambda)
	assert.False(t, rm.HasSubMethod())
	assert.True(t, rm.Resolved())
	assert.Equal(t, player, rm.DeclaringType)
	require.NotNil(t, rm.ReturnParameter)
	assert.Equal(t, testhelpers.Void, rm.ReturnParameter.Type)
	require.Len(t, rm.Parameters, 1)
	assert.Equal(t, "dt", rm.Parameters[0].Name)
	assert.Empty(t, rm.SubMethodBase)
}

func TestResolve_UnparseableNameWithBracketStaysLogical(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	list := b.Type("Game", "Inventory")
	explicit := b.Method(list, "System.Collections.Generic.IEnumerable<Item>.GetEnumerator", testhelpers.Object)

	rm := newResolver(b.Store).Resolve(explicit)
	require.NotNil(t, rm)
	assert.Equal(t, "System.Collections.Generic.IEnumerable<Item>.GetEnumerator", rm.Name)
	assert.False(t, rm.IsLambda)
	assert.True(t, rm.Resolved())
	assert.Equal(t, naming.None, rm.Kind)
}

func TestResolve_SingleLambdaHasNoOrdinal(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	closure := b.NestedType(player, "<>c")
	run := b.Method(player, "Run", testhelpers.Void)
	lambda := b.Method(closure, "<Run>b__3", testhelpers.Int, testhelpers.Param("x", testhelpers.Int))
	b.Calls(run, lambda)

	rm := newResolver(b.Store).Resolve(lambda)
	require.NotNil(t, rm)

	assert.Equal(t, "Run", rm.Name)
	assert.Equal(t, run, rm.Method)
	assert.Equal(t, player, rm.DeclaringType)
	assert.True(t, rm.IsLambda)
	assert.Empty(t, rm.SubMethod)
	assert.Nil(t, rm.Ordinal)
	assert.Equal(t, lambda, rm.SubMethodBase)
	assert.Equal(t, testhelpers.Int, rm.SubMethodReturnType)
	require.Len(t, rm.SubMethodParameters, 1)
	assert.Equal(t, testhelpers.Int, rm.SubMethodParameters[0].Type)
}

func TestResolve_SiblingLambdasGetOrdinals(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	closure := b.NestedType(player, "<>c")
	run := b.Method(player, "Run", testhelpers.Void)
	first := b.Method(closure, "<Run>b__3_0", testhelpers.Void)
	second := b.Method(closure, "<Run>b__3_1", testhelpers.Void)
	b.Calls(run, first, second)

	r := newResolver(b.Store)
	a := r.Resolve(first)
	c := r.Resolve(second)
	require.NotNil(t, a)
	require.NotNil(t, c)

	require.NotNil(t, a.Ordinal)
	require.NotNil(t, c.Ordinal)
	assert.Equal(t, 0, *a.Ordinal)
	assert.Equal(t, 1, *c.Ordinal)
	assert.Equal(t, a.Name, c.Name)
	assert.NotEqual(t, *a.Ordinal, *c.Ordinal)
}

func TestResolve_OrdinalsCanBeDisabled(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	closure := b.NestedType(player, "<>c")
	run := b.Method(player, "Run", testhelpers.Void)
	first := b.Method(closure, "<Run>b__3_0", testhelpers.Void)
	b.Method(closure, "<Run>b__3_1", testhelpers.Void)
	b.Calls(run, first)

	config := DefaultConfig()
	config.LambdaOrdinals = false
	rm := New(b.Store, config, cache.DefaultConfig()).Resolve(first)
	require.NotNil(t, rm)
	assert.Nil(t, rm.Ordinal)
}

func TestResolve_LambdaMatchedThroughDisplayClassLocal(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	display := b.NestedType(player, "<>c__DisplayClass2_0")
	spawn := b.Method(player, "Spawn", testhelpers.Void, testhelpers.Param("count", testhelpers.Int))
	lambda := b.Method(display, "<Spawn>b__0", testhelpers.Void)
	b.Locals(spawn, testhelpers.Int, display)

	rm := newResolver(b.Store).Resolve(lambda)
	require.NotNil(t, rm)
	assert.Equal(t, spawn, rm.Method)
	assert.True(t, rm.IsLambda)
}

func TestResolve_LocalsWithoutDisplayClassFallBackToBodyScan(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	display := b.NestedType(player, "<>c__DisplayClass2_0")
	unrelated := b.Method(player, "Spawn", testhelpers.Void)
	spawn := b.Method(player, "Spawn", testhelpers.Void, testhelpers.Param("count", testhelpers.Int))
	lambda := b.Method(display, "<Spawn>b__0", testhelpers.Void)
	b.Locals(unrelated, testhelpers.Int)
	b.Calls(spawn, lambda)

	rm := newResolver(b.Store).Resolve(lambda)
	require.NotNil(t, rm)
	assert.Equal(t, spawn, rm.Method, "overload without a reference must not be picked")
}

func TestResolve_LocalFunction(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	outer := b.Method(player, "Outer", testhelpers.Void)
	inner := b.Method(player, "<Outer>g__Inner|0_1", testhelpers.String, testhelpers.Param("id", testhelpers.Int))
	b.Calls(outer, inner)

	rm := newResolver(b.Store).Resolve(inner)
	require.NotNil(t, rm)

	assert.Equal(t, "Outer", rm.Name)
	assert.Equal(t, "Inner", rm.SubMethod)
	assert.Equal(t, naming.LocalFunction, rm.Kind)
	assert.False(t, rm.IsLambda)
	assert.Nil(t, rm.Ordinal)
	assert.True(t, rm.ShowsSubSignature())
}

func TestResolve_LocalFunctionMatchedByHint(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	outer := b.Method(player, "Outer", testhelpers.Void)
	sibling := b.Method(player, "<Outer>g__Other|0_0", testhelpers.Void)
	inner := b.Method(player, "<Outer>g__Inner|0_1", testhelpers.Void)
	b.Calls(outer, sibling)

	rm := newResolver(b.Store).Resolve(inner)
	require.NotNil(t, rm)
	assert.Equal(t, outer, rm.Method)
	assert.Equal(t, "Inner", rm.SubMethod)
}

func TestResolve_WalksEnclosingTypes(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	outerDisplay := b.NestedType(player, "<>c__DisplayClass0_0")
	innerDisplay := b.NestedType(outerDisplay, "<>c__DisplayClass0_1")
	run := b.Method(player, "Run", testhelpers.Void)
	lambda := b.Method(innerDisplay, "<Run>b__1", testhelpers.Void)
	b.Calls(run, lambda)

	rm := newResolver(b.Store).Resolve(lambda)
	require.NotNil(t, rm)
	assert.Equal(t, run, rm.Method)
	assert.Equal(t, player, rm.DeclaringType)

	config := DefaultConfig()
	config.MaxDepth = 1
	shallow := New(b.Store, config, cache.DefaultConfig()).Resolve(lambda)
	require.NotNil(t, shallow)
	assert.False(t, shallow.Resolved())
	assert.Equal(t, "<Run>b__1", shallow.Name)
	assert.True(t, shallow.IsLambda)
	assert.Nil(t, shallow.Parameters)
}

func TestResolve_Constructor(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	closure := b.NestedType(player, "<>c")
	ctor := b.Ctor(player, testhelpers.Param("name", testhelpers.String))
	lambda := b.Method(closure, "<.ctor>b__0", testhelpers.Void)
	b.Calls(ctor, lambda)

	rm := newResolver(b.Store).Resolve(lambda)
	require.NotNil(t, rm)
	assert.Equal(t, metadata.ConstructorName, rm.Name)
	assert.Equal(t, ctor, rm.Method)
	assert.Nil(t, rm.ReturnParameter)
	assert.True(t, rm.IsLambda)
}

func TestResolve_TypeInitializer(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	closure := b.NestedType(player, "<>c")
	closureInit := b.TypeInitializer(closure)
	b.Calls(closureInit, b.Ctor(closure))
	cctor := b.TypeInitializer(player)
	lambda := b.Method(closure, "<.cctor>b__5_0", testhelpers.Void)

	rm := newResolver(b.Store).Resolve(lambda)
	require.NotNil(t, rm)
	assert.Equal(t, cctor, rm.Method, "the display class's own initializer must not be taken")
	assert.Equal(t, metadata.TypeInitializerName, rm.Name)
	assert.Equal(t, player, rm.DeclaringType)
}

func TestResolve_TypeInitializerDelegateField(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	closure := b.NestedType(player, "<>c")
	b.TypeInitializer(player)
	lambda := b.Method(closure, "<.cctor>b__5_0", testhelpers.Void, testhelpers.Param("level", testhelpers.Int))
	b.Store.AddDelegateField(player, metadata.DelegateField{Name: "OnLoad", Method: lambda, TargetType: closure})

	rm := newResolver(b.Store).Resolve(lambda)
	require.NotNil(t, rm)
	assert.Equal(t, "OnLoad", rm.Name)
	assert.False(t, rm.IsLambda)
	assert.False(t, rm.HasSubMethod())
	assert.Equal(t, lambda, rm.Method)
	require.Len(t, rm.Parameters, 1)
	assert.Equal(t, "level", rm.Parameters[0].Name)
}

func TestResolve_StateMachineStep(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	enumerate := b.Method(player, "Enumerate", testhelpers.Object, testhelpers.Param("count", testhelpers.Int))
	step := b.StateMachine(player, enumerate, "<Enumerate>d__4")

	rm := newResolver(b.Store).Resolve(step)
	require.NotNil(t, rm)
	assert.Equal(t, "Enumerate", rm.Name)
	assert.Equal(t, enumerate, rm.Method)
	assert.Equal(t, "MoveNext", rm.SubMethod)
	assert.Equal(t, player, rm.DeclaringType)
	assert.False(t, rm.IsLambda)
	assert.False(t, rm.ShowsSubSignature())
}

func TestResolve_StateMachineWithoutOwnerStaysLogical(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	sm := b.NestedType(player, "<Enumerate>d__4")
	b.CompilerGenerated(sm, metadata.EnumeratorInterface)
	step := b.Method(sm, "MoveNext", testhelpers.Bool)

	rm := newResolver(b.Store).Resolve(step)
	require.NotNil(t, rm)
	assert.Equal(t, "MoveNext", rm.Name)
	assert.Equal(t, step, rm.Method)
	assert.False(t, rm.HasSubMethod())
	assert.Empty(t, rm.SubMethodBase)
}

func TestResolve_ParameterPrefixesAndTuples(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	intRef := b.ByRef(testhelpers.Int)
	pair := b.Tuple(testhelpers.Int, testhelpers.String)
	m := b.Method(player, "Move", testhelpers.Void,
		testhelpers.OutParam("result", intRef),
		testhelpers.Param("counter", intRef),
		testhelpers.Param("origin", intRef),
		testhelpers.Param("pair", pair),
	)
	b.Store.AddAttribute(metadata.ParameterTarget(m, 2), metadata.Attribute{TypeName: metadata.IsReadOnlyAttribute})
	b.TupleNames(m, 3, "x", "y")

	rm := newResolver(b.Store).Resolve(m)
	require.NotNil(t, rm)
	require.Len(t, rm.Parameters, 4)

	assert.Equal(t, "out", rm.Parameters[0].Prefix)
	assert.Equal(t, testhelpers.Int, rm.Parameters[0].Type)
	assert.Equal(t, "ref", rm.Parameters[1].Prefix)
	assert.Equal(t, "in", rm.Parameters[2].Prefix)
	assert.Empty(t, rm.Parameters[3].Prefix)
	assert.True(t, rm.Parameters[3].IsTuple)
	assert.Equal(t, []string{"x", "y"}, rm.Parameters[3].TupleNames)
}

func TestResolve_SubMethodDropsGeneratedParameters(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	outer := b.Method(player, "Outer", testhelpers.Void)
	inner := b.Method(player, "<Outer>g__Inner|0_0", testhelpers.Void,
		testhelpers.Param("value", testhelpers.Int),
		testhelpers.Param("<>8__locals1", testhelpers.Object),
	)
	b.Calls(outer, inner)

	rm := newResolver(b.Store).Resolve(inner)
	require.NotNil(t, rm)
	require.Len(t, rm.SubMethodParameters, 1)
	assert.Equal(t, "value", rm.SubMethodParameters[0].Name)
}

func TestResolve_GenericArguments(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	m := b.GenericMethod(player, "Get", testhelpers.Object, []metadata.TypeID{testhelpers.Int})

	rm := newResolver(b.Store).Resolve(m)
	require.NotNil(t, rm)
	assert.Equal(t, []metadata.TypeID{testhelpers.Int}, rm.GenericArguments)
}

func TestResolve_UnknownMethod(t *testing.T) {
	r := newResolver(metadata.NewStore())
	assert.Nil(t, r.Resolve(""))
	assert.Nil(t, r.Resolve("Missing::Method"))
}

func TestResolve_FaultInjection(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	closure := b.NestedType(player, "<>c")
	run := b.Method(player, "Run", testhelpers.Void)
	lambda := b.Method(closure, "<Run>b__3", testhelpers.Void)
	b.Calls(run, lambda)

	tests := []struct {
		name     string
		provider *testhelpers.FaultyProvider
	}{
		{"attributes fail", &testhelpers.FaultyProvider{Provider: b.Store, FailAttributes: true}},
		{"instructions fail", &testhelpers.FaultyProvider{Provider: b.Store, FailInstructions: true}},
		{"instructions panic", &testhelpers.FaultyProvider{Provider: b.Store, PanicInstructions: true}},
		{"locals fail", &testhelpers.FaultyProvider{Provider: b.Store, FailLocals: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var rm *ResolvedMethod
			require.NotPanics(t, func() {
				rm = newResolver(tc.provider).Resolve(lambda)
			})
			require.NotNil(t, rm)
			assert.True(t, rm.IsLambda)
			assert.NotEmpty(t, rm.Name)
		})
	}
}

func TestResolve_BodyFailureSkipsOnlyThatCandidate(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	closure := b.NestedType(player, "<>c")
	run := b.Method(player, "Run", testhelpers.Void)
	lambda := b.Method(closure, "<Run>b__3", testhelpers.Void)
	b.Calls(run, lambda)

	faulty := &testhelpers.FaultyProvider{Provider: b.Store, FailInstructions: true}
	rm := newResolver(faulty).Resolve(lambda)
	require.NotNil(t, rm)
	assert.False(t, rm.Resolved())
	assert.Equal(t, "<Run>b__3", rm.Name)
}

func TestResolve_ResultsAreCached(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	update := b.Method(player, "Update", testhelpers.Void)

	r := newResolver(b.Store)
	first := r.Resolve(update)
	second := r.Resolve(update)
	assert.Same(t, first, second)
	assert.GreaterOrEqual(t, r.Stats().Hits, int64(1))
}

func TestResolve_AsyncPrefix(t *testing.T) {
	b := testhelpers.NewMetadataBuilder()
	player := b.Type("Game", "Player")
	load := b.Method(player, "LoadAsync", testhelpers.Object)
	b.Store.AddAttribute(metadata.MethodTarget(load), metadata.Attribute{TypeName: metadata.AsyncStateMachineAttribute})

	config := DefaultConfig()
	config.AsyncPrefix = true
	rm := New(b.Store, config, cache.DefaultConfig()).Resolve(load)
	require.NotNil(t, rm)
	require.NotNil(t, rm.ReturnParameter)
	assert.Equal(t, "async", rm.ReturnParameter.Prefix2)
}
