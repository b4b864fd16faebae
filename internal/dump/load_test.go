package dump

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dmerrors "github.com/standardbeagle/demystify/internal/errors"
	"github.com/standardbeagle/demystify/internal/metadata"
	"github.com/standardbeagle/demystify/internal/trace"
)

func TestLoad_RendersPlayerTrace(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "player.trace.yaml"))
	require.NoError(t, err)
	require.Len(t, d.Exceptions, 1)

	text := trace.New(d.Store, trace.DefaultConfig()).Demystify(d.Exceptions[0])

	expected := "System.InvalidOperationException: Sequence contains no elements" +
		"\n  at void Game.Player.Start()+(int)➞ int (at /home/dev/Game/Assets/Player.cs:12)" +
		"\n  at object System.Linq.Enumerable.ToList()" +
		"\n  at object Game.Player.Enumerate(int)+MoveNext() (at Player.cs:30)" +
		"\n  at void Game.Player.Move((int x, string y), int) (at Player.cs:41)" +
		" ---> System.ArgumentException: bad count" +
		"\n  at void Game.Player.Start() (at /home/dev/Game/Assets/Player.cs:8)" +
		"\n   --- End of inner exception stack trace ---"
	assert.Equal(t, expected, text)
}

func TestParse_Structure(t *testing.T) {
	doc := `
types:
  - {id: App.Worker, namespace: App, name: Worker}
  - id: App.Worker+<>c
    namespace: App
    name: <>c
    declaring_type: App.Worker
    delegate_fields:
      - {name: Handler, method: "App.Worker+<>c::<.cctor>b__0_0", target_type: App.Worker+<>c}
methods:
  - {id: "App.Worker::.cctor", name: .cctor, declaring_type: App.Worker, kind: type_initializer}
  - {id: "App.Worker::.ctor", name: .ctor, declaring_type: App.Worker, kind: constructor}
  - id: "App.Worker+<>c::<.cctor>b__0_0"
    name: <.cctor>b__0_0
    declaring_type: App.Worker+<>c
    return_type: System.Void
    locals: [App.Worker]
exceptions:
  - type: System.AggregateException
    captured:
      - frames: [{method: "App.Worker::.ctor"}]
    frames: [{raw: "at <native>"}]
    aggregated:
      - {type: System.Exception, message: first}
      - {type: System.Exception, message: second}
`
	d, err := Parse([]byte(doc), "inline.yaml")
	require.NoError(t, err)

	m, err := d.Store.Method("App.Worker::.cctor")
	require.NoError(t, err)
	assert.Equal(t, metadata.MethodKindTypeInitializer, m.Kind)

	ctors, err := d.Store.DeclaredConstructors("App.Worker")
	require.NoError(t, err)
	assert.Len(t, ctors, 2)

	fields, err := d.Store.StaticDelegateFields("App.Worker+<>c")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Handler", fields[0].Name)

	locals, err := d.Store.LocalVariables("App.Worker+<>c::<.cctor>b__0_0")
	require.NoError(t, err)
	assert.Equal(t, []metadata.TypeID{"App.Worker"}, locals)

	assert.True(t, d.Store.HasType("System.Void"), "primitives are registered on first use")

	require.Len(t, d.Exceptions, 1)
	ex := d.Exceptions[0]
	assert.True(t, ex.IsAggregate())
	assert.Len(t, ex.Aggregated, 2)
	assert.Equal(t, "at <native>", ex.Trace.Frames[0].Raw)
	require.Len(t, ex.Trace.Captured, 1)
	assert.Equal(t, metadata.MethodID("App.Worker::.ctor"), ex.Trace.Flatten()[0].Method)
}

func TestParse_JSON(t *testing.T) {
	doc := `{"types": [{"id": "A", "name": "A"}], "methods": [{"id": "A::Run", "name": "Run", "declaring_type": "A"}], ` +
		`"exceptions": [{"type": "System.Exception", "frames": [{"method": "A::Run", "line": 3}]}]}`

	d, err := Parse([]byte(doc), "inline.json")
	require.NoError(t, err)
	require.Len(t, d.Exceptions, 1)
	assert.Equal(t, 3, d.Exceptions[0].Trace.Frames[0].Line)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		field    string
		contains string
	}{
		{
			name:  "missing type id",
			doc:   "types:\n  - {name: A}\n",
			field: "types[0].id",
		},
		{
			name:     "duplicate type",
			doc:      "types:\n  - {id: A, name: A}\n  - {id: A, name: A}\n",
			field:    "types[1].id",
			contains: "duplicate",
		},
		{
			name:     "dangling declaring type",
			doc:      "types:\n  - {id: Game.Player, name: Player}\nmethods:\n  - {id: m, name: Run, declaring_type: Game.Playr}\n",
			field:    "methods[0].declaring_type",
			contains: `did you mean "Game.Player"`,
		},
		{
			name:     "dangling frame method",
			doc:      "methods:\n  - {id: 'Game.Player::Update', name: Update}\nexceptions:\n  - type: E\n    frames: [{method: 'Game.Player::Updat'}]\n",
			field:    "exceptions[0].frames[0].method",
			contains: `did you mean "Game.Player::Update"`,
		},
		{
			name:     "unknown kind",
			doc:      "methods:\n  - {id: m, name: Run, kind: destructor}\n",
			field:    "methods[0].kind",
			contains: "destructor",
		},
		{
			name:  "missing exception type",
			doc:   "exceptions:\n  - {message: boom}\n",
			field: "exceptions[0].type",
		},
		{
			name:  "nested inner exception",
			doc:   "exceptions:\n  - type: E\n    inner:\n      type: F\n      frames: [{method: nowhere}]\n",
			field: "exceptions[0].inner.frames[0].method",
		},
		{
			name:  "attribute without type",
			doc:   "methods:\n  - id: m\n    name: Run\n    attributes: [{state_machine_type: X}]\n",
			field: "methods[0].attributes[0].type",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc), "bad.yaml")
			require.Error(t, err)

			var multi *dmerrors.MultiError
			require.True(t, errors.As(err, &multi), "expected MultiError, got %T", err)

			var found *dmerrors.DumpError
			for _, e := range multi.Errors {
				var de *dmerrors.DumpError
				if errors.As(e, &de) && de.Field == tc.field {
					found = de
				}
			}
			require.NotNil(t, found, "no error for %s in %v", tc.field, err)
			assert.Equal(t, "bad.yaml", found.Path)
			if tc.contains != "" {
				assert.Contains(t, found.Error(), tc.contains)
			}
		})
	}
}

func TestParse_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", "  \n"},
		{"unknown field", "types:\n  - {id: A, name: A, colour: red}\n"},
		{"multiple documents", "types: []\n---\ntypes: []\n"},
		{"malformed", "types: [\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc), "bad.yaml")
			var de *dmerrors.DumpError
			require.True(t, errors.As(err, &de), "expected DumpError, got %v", err)
			assert.Equal(t, "bad.yaml", de.Path)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.trace.yaml")
	_, err := Load(path)

	var de *dmerrors.DumpError
	require.True(t, errors.As(err, &de))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSuggest(t *testing.T) {
	known := []string{"Game.Player", "Game.Enemy", "System.Linq.Enumerable"}

	assert.Equal(t, ` (did you mean "Game.Player"?)`, suggest("Game.Playr", known))
	assert.Equal(t, ` (did you mean "System.Linq.Enumerable"?)`, suggest("System.Linq.Enumerabl", known))
	assert.Empty(t, suggest("Completely.Different", known))
	assert.Empty(t, suggest("X", nil))
}
