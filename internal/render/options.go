// Package render turns resolved methods and frames into trace text.
package render

import (
	"fmt"
	"strings"
)

// ParameterMode selects how parameter lists are rendered
type ParameterMode int

const (
	// ParametersTypes renders type names only
	ParametersTypes ParameterMode = iota
	// ParametersFull renders prefix, type and name
	ParametersFull
	// ParametersShort renders the first letter of each parameter name
	ParametersShort
	// ParametersNone omits the parameter list
	ParametersNone
)

var parameterModeNames = []string{"types", "full", "short", "none"}

// String returns the configuration name of the mode
func (m ParameterMode) String() string {
	if int(m) < len(parameterModeNames) {
		return parameterModeNames[m]
	}
	return fmt.Sprintf("ParameterMode(%d)", int(m))
}

// ParseParameterMode parses a configuration name
func ParseParameterMode(s string) (ParameterMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for i, name := range parameterModeNames {
		if name == normalized {
			return ParameterMode(i), nil
		}
	}
	return ParametersTypes, fmt.Errorf("unknown parameter mode %q (expected one of %s)", s, strings.Join(parameterModeNames, ", "))
}

// Formatting markers used by hosts that colorize traces
const (
	markerOpen    = '‹'
	markerClose   = '›'
	markerNameEnd = '‼'
)

// DefaultFramePrefix precedes every rendered frame
const DefaultFramePrefix = "  at "

// DefaultOmitLocationPrefix suppresses locations of logging frames
const DefaultOmitLocationPrefix = "Log"

// Options controls rendering
type Options struct {
	Parameters ParameterMode
	Markers    bool
	// FramePrefix is written before each frame line
	FramePrefix string
	// Locations enables the " (at file:line)" suffix
	Locations bool
	// OmitLocationPrefix suppresses the location of frames whose method name
	// starts with it. Empty disables the check.
	OmitLocationPrefix string
}

// DefaultOptions returns default rendering options
func DefaultOptions() Options {
	return Options{
		Parameters:         ParametersTypes,
		FramePrefix:        DefaultFramePrefix,
		Locations:          true,
		OmitLocationPrefix: DefaultOmitLocationPrefix,
	}
}
