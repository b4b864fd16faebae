package config

import (
	"github.com/standardbeagle/demystify/internal/cache"
	"github.com/standardbeagle/demystify/internal/frames"
	"github.com/standardbeagle/demystify/internal/render"
	"github.com/standardbeagle/demystify/internal/resolver"
	"github.com/standardbeagle/demystify/internal/trace"
)

// Configuration file names, looked up in this order
const (
	KDLFileName  = ".demystify.kdl"
	TOMLFileName = ".demystify.toml"
)

// Watch defaults
const (
	DefaultWatchPattern    = "**/*.trace.yaml"
	DefaultWatchDebounceMs = 200
	DefaultOutputSuffix    = ".demystified.txt"
)

type Config struct {
	Version int     `toml:"version"`
	Resolve Resolve `toml:"resolve"`
	Cache   Cache   `toml:"cache"`
	Filter  Filter  `toml:"filter"`
	Render  Render  `toml:"render"`
	Watch   Watch   `toml:"watch"`
}

type Resolve struct {
	MaxDepth       int  `toml:"max_depth"`       // Enclosing types searched for a generated name's origin
	LambdaOrdinals bool `toml:"lambda_ordinals"` // Number sibling lambdas sharing a stem
	StateMachines  bool `toml:"state_machines"`  // Map MoveNext steps to their owning method
	CctorDelegates bool `toml:"cctor_delegates"` // Name lambdas cached in static delegate fields
	AsyncPrefix    bool `toml:"async_prefix"`    // Prefix async return types with "async"
}

type Cache struct {
	Enabled    bool `toml:"enabled"`
	MaxEntries int  `toml:"max_entries"` // Applies to the method and the attribute memo
	Shards     int  `toml:"shards"`
}

type Filter struct {
	Collapse            []string `toml:"collapse"`              // Type name prefixes of framework code
	HiddenNamespaces    []string `toml:"hidden_namespace"`      // Type name prefixes never shown
	HiddenTypes         []string `toml:"hidden_type"`           // Full type names never shown
	HiddenMethods       []string `toml:"hidden_method"`         // "Type::Method" entries never shown
	ExcludeFromCollapse []string `toml:"exclude_from_collapse"` // "Type::Method" entries always shown
	HiddenAttribute     string   `toml:"hidden_attribute"`
}

type Render struct {
	Parameters         string `toml:"parameters"` // "types", "full", "short" or "none"
	Markers            bool   `toml:"markers"`
	FramePrefix        string `toml:"frame_prefix"`
	Locations          bool   `toml:"locations"`
	OmitLocationPrefix string `toml:"omit_location_prefix"`
	MaxExceptionDepth  int    `toml:"max_exception_depth"`
}

// Watch controls the dump directory watcher
type Watch struct {
	Pattern      string `toml:"pattern"` // doublestar pattern relative to the watched directory
	DebounceMs   int    `toml:"debounce_ms"`
	OutputSuffix string `toml:"output_suffix"`
}

// Default returns the built-in configuration
func Default() *Config {
	r := resolver.DefaultConfig()
	c := cache.DefaultConfig()
	f := frames.DefaultConfig()
	o := render.DefaultOptions()

	return &Config{
		Version: 1,
		Resolve: Resolve{
			MaxDepth:       r.MaxDepth,
			LambdaOrdinals: r.LambdaOrdinals,
			StateMachines:  r.StateMachines,
			CctorDelegates: r.TypeInitializerDelegates,
			AsyncPrefix:    r.AsyncPrefix,
		},
		Cache: Cache{
			Enabled:    c.Enabled,
			MaxEntries: c.MaxEntries,
			Shards:     c.Shards,
		},
		Filter: Filter{
			Collapse:            f.CollapsePrefixes,
			HiddenNamespaces:    f.HiddenNamespaces,
			HiddenTypes:         f.HiddenTypes,
			HiddenMethods:       f.HiddenMethods,
			ExcludeFromCollapse: f.ExcludeFromCollapse,
			HiddenAttribute:     f.HiddenAttribute,
		},
		Render: Render{
			Parameters:         o.Parameters.String(),
			Markers:            o.Markers,
			FramePrefix:        o.FramePrefix,
			Locations:          o.Locations,
			OmitLocationPrefix: o.OmitLocationPrefix,
			MaxExceptionDepth:  trace.DefaultMaxExceptionDepth,
		},
		Watch: Watch{
			Pattern:      DefaultWatchPattern,
			DebounceMs:   DefaultWatchDebounceMs,
			OutputSuffix: DefaultOutputSuffix,
		},
	}
}

// Load reads .demystify.kdl, or failing that .demystify.toml, from dir.
// Without either file the defaults are returned.
func Load(dir string) (*Config, error) {
	cfg, err := LoadKDL(dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		if cfg, err = LoadTOML(dir); err != nil {
			return nil, err
		}
	}
	if cfg == nil {
		cfg = Default()
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Demystifier converts the configuration for trace.New. The configuration
// must have been validated.
func (c *Config) Demystifier() trace.Config {
	// validated, so the mode parses
	mode, _ := render.ParseParameterMode(c.Render.Parameters)

	return trace.Config{
		Resolver: resolver.Config{
			MaxDepth:                 c.Resolve.MaxDepth,
			LambdaOrdinals:           c.Resolve.LambdaOrdinals,
			StateMachines:            c.Resolve.StateMachines,
			TypeInitializerDelegates: c.Resolve.CctorDelegates,
			AsyncPrefix:              c.Resolve.AsyncPrefix,
		},
		Cache: cache.Config{
			Enabled:    c.Cache.Enabled,
			MaxEntries: c.Cache.MaxEntries,
			Shards:     c.Cache.Shards,
		},
		Frames: frames.Config{
			CollapsePrefixes:    c.Filter.Collapse,
			HiddenNamespaces:    c.Filter.HiddenNamespaces,
			HiddenTypes:         c.Filter.HiddenTypes,
			HiddenMethods:       c.Filter.HiddenMethods,
			HiddenAttribute:     c.Filter.HiddenAttribute,
			ExcludeFromCollapse: c.Filter.ExcludeFromCollapse,
		},
		Render: render.Options{
			Parameters:         mode,
			Markers:            c.Render.Markers,
			FramePrefix:        c.Render.FramePrefix,
			Locations:          c.Render.Locations,
			OmitLocationPrefix: c.Render.OmitLocationPrefix,
		},
		MaxExceptionDepth: c.Render.MaxExceptionDepth,
	}
}
