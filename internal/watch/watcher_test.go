package watch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/demystify/internal/config"
	"github.com/standardbeagle/demystify/internal/dump"
	"github.com/standardbeagle/demystify/internal/trace"
	"github.com/standardbeagle/demystify/testhelpers"
)

const playerDump = "../dump/testdata/player.trace.yaml"

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Watch.DebounceMs = 20
	return cfg
}

// placeDump writes a dump atomically so the watcher never sees a partial file
func placeDump(t *testing.T, dst string, data []byte) {
	t.Helper()
	tmp := dst + ".partial"
	require.NoError(t, os.WriteFile(tmp, data, 0o644))
	require.NoError(t, os.Rename(tmp, dst))
}

func startWatcher(t *testing.T, dir string) (*Watcher, <-chan Result) {
	t.Helper()
	w, err := New(dir, testConfig())
	require.NoError(t, err)

	results := make(chan Result, 16)
	w.OnRendered(func(r Result) { results <- r })
	require.NoError(t, w.Start())
	return w, results
}

func waitResult(t *testing.T, results <-chan Result) Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher")
		return Result{}
	}
}

func TestWatcher_RendersNewDump(t *testing.T) {
	defer testhelpers.LeakCheck(t)()

	data, err := os.ReadFile(playerDump)
	require.NoError(t, err)

	dir := t.TempDir()
	w, results := startWatcher(t, dir)

	src := filepath.Join(dir, "crash.trace.yaml")
	placeDump(t, src, data)

	r := waitResult(t, results)
	require.NoError(t, r.Err)
	assert.Equal(t, src, r.Source)
	assert.Equal(t, 1, r.Exceptions)
	assert.Equal(t, src+config.DefaultOutputSuffix, r.Output)

	out, err := os.ReadFile(r.Output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "System.InvalidOperationException: Sequence contains no elements\n"))
	assert.Contains(t, string(out), "Game.Player.Start()+(int)➞ int")

	require.NoError(t, w.Stop())
	stats := w.Stats()
	assert.Equal(t, int64(1), stats.Rendered)
	assert.Zero(t, stats.ErrorCount)
	assert.False(t, stats.IsActive)
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	defer testhelpers.LeakCheck(t)()

	data, err := os.ReadFile(playerDump)
	require.NoError(t, err)

	dir := t.TempDir()
	w, results := startWatcher(t, dir)
	defer func() { require.NoError(t, w.Stop()) }()

	sub := filepath.Join(dir, "nightly", "build-42")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	placeDump(t, filepath.Join(sub, "crash.trace.yaml"), data)

	r := waitResult(t, results)
	require.NoError(t, r.Err)
	assert.FileExists(t, r.Output)
}

func TestWatcher_InvalidDump(t *testing.T) {
	defer testhelpers.LeakCheck(t)()

	dir := t.TempDir()
	w, results := startWatcher(t, dir)

	src := filepath.Join(dir, "broken.trace.yaml")
	placeDump(t, src, []byte("methods:\n  - {id: m, name: Run, declaring_type: Missing}\n"))

	r := waitResult(t, results)
	assert.Error(t, r.Err)
	assert.NoFileExists(t, src+config.DefaultOutputSuffix)

	require.NoError(t, w.Stop())
	assert.Equal(t, int64(1), w.Stats().ErrorCount)
}

func TestWatcher_Matches(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, testConfig())
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Stop()) }()

	tests := []struct {
		path  string
		match bool
	}{
		{"crash.trace.yaml", true},
		{"a/b/crash.trace.yaml", true},
		{"crash.yaml", false},
		{"crash.trace.yaml" + config.DefaultOutputSuffix, false},
		{"notes.txt", false},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.match, w.Matches(filepath.Join(w.Root(), tc.path)))
		})
	}

	assert.False(t, w.Matches(filepath.Join(filepath.Dir(w.Root()), "outside.trace.yaml")))
}

func TestRenderDump(t *testing.T) {
	doc := `
exceptions:
  - {type: System.Exception, message: first}
  - {type: System.Exception, message: second}
`
	d, err := dump.Parse([]byte(doc), "inline.yaml")
	require.NoError(t, err)

	text := RenderDump(d, trace.DefaultConfig())
	assert.Equal(t, "System.Exception: first\n\nSystem.Exception: second\n", text)

	assert.Empty(t, RenderDump(&dump.Dump{Store: d.Store}, trace.DefaultConfig()))
}

func TestEventDebouncer_Batches(t *testing.T) {
	batches := make(chan []string, 4)
	d := newEventDebouncer(20*time.Millisecond, func(paths []string) { batches <- paths })

	d.addEvent("b")
	d.addEvent("a")
	d.addEvent("b")

	select {
	case got := <-batches:
		assert.Equal(t, []string{"a", "b"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("debouncer never flushed")
	}

	d.stop()
	d.addEvent("c")
	select {
	case got := <-batches:
		t.Fatalf("unexpected batch after stop: %v", got)
	case <-time.After(60 * time.Millisecond):
	}
}
