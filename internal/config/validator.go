package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	dmerrors "github.com/standardbeagle/demystify/internal/errors"
	"github.com/standardbeagle/demystify/internal/render"
	"github.com/standardbeagle/demystify/internal/trace"
)

// maxResolveDepth caps the enclosing-type walk; nesting deeper than this
// does not occur in compiler output
const maxResolveDepth = 64

// Validator validates configuration and sets defaults for zero values
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies defaults.
// Returns a *errors.ConfigError naming the offending field.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateResolve(&cfg.Resolve); err != nil {
		return err
	}
	if err := v.validateCache(&cfg.Cache); err != nil {
		return err
	}
	if err := v.validateRender(&cfg.Render); err != nil {
		return err
	}
	if err := v.validateWatch(&cfg.Watch); err != nil {
		return err
	}

	v.setDefaults(cfg)
	return nil
}

func (v *Validator) validateResolve(r *Resolve) error {
	if r.MaxDepth < 0 || r.MaxDepth > maxResolveDepth {
		return dmerrors.NewConfigError("resolve.max_depth", strconv.Itoa(r.MaxDepth),
			fmt.Errorf("must be between 0 and %d", maxResolveDepth))
	}
	return nil
}

func (v *Validator) validateCache(c *Cache) error {
	if c.MaxEntries < 0 {
		return dmerrors.NewConfigError("cache.max_entries", strconv.Itoa(c.MaxEntries), errors.New("cannot be negative"))
	}
	if c.Shards < 0 {
		return dmerrors.NewConfigError("cache.shards", strconv.Itoa(c.Shards), errors.New("cannot be negative"))
	}
	return nil
}

func (v *Validator) validateRender(r *Render) error {
	if r.Parameters != "" {
		if _, err := render.ParseParameterMode(r.Parameters); err != nil {
			return dmerrors.NewConfigError("render.parameters", r.Parameters, err)
		}
	}
	if r.MaxExceptionDepth < 0 {
		return dmerrors.NewConfigError("render.max_exception_depth", strconv.Itoa(r.MaxExceptionDepth), errors.New("cannot be negative"))
	}
	return nil
}

func (v *Validator) validateWatch(w *Watch) error {
	if w.Pattern != "" && !doublestar.ValidatePattern(w.Pattern) {
		return dmerrors.NewConfigError("watch.pattern", w.Pattern, doublestar.ErrBadPattern)
	}
	if w.DebounceMs < 0 {
		return dmerrors.NewConfigError("watch.debounce_ms", strconv.Itoa(w.DebounceMs), errors.New("cannot be negative"))
	}
	return nil
}

// setDefaults fills zero values that have no meaningful zero setting
func (v *Validator) setDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Render.Parameters == "" {
		cfg.Render.Parameters = render.ParametersTypes.String()
	}
	if cfg.Render.MaxExceptionDepth == 0 {
		cfg.Render.MaxExceptionDepth = trace.DefaultMaxExceptionDepth
	}
	if cfg.Watch.Pattern == "" {
		cfg.Watch.Pattern = DefaultWatchPattern
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = DefaultWatchDebounceMs
	}
	if cfg.Watch.OutputSuffix == "" {
		cfg.Watch.OutputSuffix = DefaultOutputSuffix
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
