// Package trace assembles demystified exception text from raw traces.
package trace

import (
	"github.com/standardbeagle/demystify/internal/cache"
	"github.com/standardbeagle/demystify/internal/frames"
	"github.com/standardbeagle/demystify/internal/metadata"
	"github.com/standardbeagle/demystify/internal/render"
	"github.com/standardbeagle/demystify/internal/resolver"
)

// DefaultMaxExceptionDepth bounds recursion through inner exceptions
const DefaultMaxExceptionDepth = 16

// Config groups the settings of every stage of a rendering pass
type Config struct {
	Resolver resolver.Config
	Cache    cache.Config
	Frames   frames.Config
	Render   render.Options
	// MaxExceptionDepth is how many levels of inner exceptions are rendered
	MaxExceptionDepth int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Resolver:          resolver.DefaultConfig(),
		Cache:             cache.DefaultConfig(),
		Frames:            frames.DefaultConfig(),
		Render:            render.DefaultOptions(),
		MaxExceptionDepth: DefaultMaxExceptionDepth,
	}
}

// Demystifier turns exceptions into readable traces. It is safe for
// concurrent use; resolved methods are shared through its caches.
type Demystifier struct {
	resolver *resolver.Resolver
	filter   *frames.Filter
	renderer *render.Renderer
	maxDepth int
}

// New creates a demystifier over a metadata provider
func New(provider metadata.Provider, config Config) *Demystifier {
	if config.MaxExceptionDepth <= 0 {
		config.MaxExceptionDepth = DefaultMaxExceptionDepth
	}
	r := resolver.New(provider, config.Resolver, config.Cache)
	return &Demystifier{
		resolver: r,
		// visibility checks share the resolver's attribute cache
		filter:   frames.NewFilter(provider, r, config.Frames),
		renderer: render.NewRenderer(provider, config.Render),
		maxDepth: config.MaxExceptionDepth,
	}
}

// Resolve returns the logical method behind a raw method identity
func (d *Demystifier) Resolve(id metadata.MethodID) *resolver.ResolvedMethod {
	return d.resolver.Resolve(id)
}

// Renderer returns the renderer used for frame text
func (d *Demystifier) Renderer() *render.Renderer {
	return d.renderer
}

// Lines filters a trace and resolves its visible frames
func (d *Demystifier) Lines(t metadata.Trace) []render.Line {
	visible := d.filter.Apply(t.Flatten())
	lines := make([]render.Line, len(visible))
	for i, f := range visible {
		lines[i] = render.Line{Frame: f, Method: d.resolver.Resolve(f.Method)}
	}
	return lines
}

// Stats returns the combined statistics of the resolver caches
func (d *Demystifier) Stats() cache.Stats {
	return d.resolver.Stats()
}
