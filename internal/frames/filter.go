// Package frames decides which raw frames of a trace are shown. Hidden frames
// are dropped first; runs of framework frames are then collapsed so that only
// frames bordering user code remain.
package frames

import (
	"strings"

	"github.com/standardbeagle/demystify/internal/debug"
	"github.com/standardbeagle/demystify/internal/metadata"
)

// Config lists the names that drive visibility and collapsing
type Config struct {
	// CollapsePrefixes are full type-name prefixes of framework code
	CollapsePrefixes []string
	// HiddenNamespaces are full type-name prefixes that are never shown
	HiddenNamespaces []string
	// HiddenTypes are full type names that are never shown
	HiddenTypes []string
	// HiddenMethods are "<type full name>::<method name>" pairs never shown
	HiddenMethods []string
	// HiddenAttribute marks methods and types hidden from traces
	HiddenAttribute string
	// ExcludeFromCollapse lists "<type full name>::<method name>" pairs shown
	// even inside framework code
	ExcludeFromCollapse []string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		CollapsePrefixes: []string{
			"UnityEditor.",
			"UnityEngine.",
			"System.",
			"UnityScript.Lang.",
			"Odin.Editor.",
			"Boo.Lang.",
		},
		HiddenNamespaces: []string{
			"System.Runtime.CompilerServices.Async",
			"Apkd.Internal.AsyncManager",
			"Apkd.Internal.Continuation`1",
			"Sirenix.OdinInspector",
		},
		HiddenTypes: []string{
			"System.ThrowHelper",
			"UnityEngine.DebugLogHandler",
			"UnityEngine.Logger",
			"UnityEngine.Debug",
		},
		HiddenMethods: []string{
			"System.Threading.ExecutionContext::Run",
			"System.Threading.ExecutionContext::RunInternal",
			"System.Runtime.ExceptionServices.ExceptionDispatchInfo::Throw",
		},
		HiddenAttribute: metadata.StackTraceHiddenAttribute,
	}
}

// AttributeSource looks up attributes, typically through a cache
type AttributeSource interface {
	Attributes(target metadata.AttributeTarget) ([]metadata.Attribute, error)
}

// Filter applies visibility and collapsing to raw frames
type Filter struct {
	provider   metadata.Provider
	attributes AttributeSource
	config     Config

	hiddenTypes   map[string]bool
	hiddenMethods map[string]bool
	excluded      map[string]bool
}

// NewFilter creates a filter. attributes may be nil to query the provider directly.
func NewFilter(provider metadata.Provider, attributes AttributeSource, config Config) *Filter {
	if attributes == nil {
		attributes = provider
	}
	return &Filter{
		provider:      provider,
		attributes:    attributes,
		config:        config,
		hiddenTypes:   toSet(config.HiddenTypes),
		hiddenMethods: toSet(config.HiddenMethods),
		excluded:      toSet(config.ExcludeFromCollapse),
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// member is a frame's method with its declaring type's full name
type member struct {
	method   *metadata.Method
	typeName string
}

func (m member) key() string {
	return m.typeName + "::" + m.method.Name
}

// identify returns nil when the frame carries no usable method identity
func (f *Filter) identify(frame metadata.Frame) *member {
	if !frame.HasMethod() {
		return nil
	}
	method, err := f.provider.Method(frame.Method)
	if err != nil {
		return nil
	}
	m := &member{method: method}
	if method.DeclaringType != "" {
		if t, err := f.provider.Type(method.DeclaringType); err == nil {
			m.typeName = t.FullName
		}
	}
	return m
}

// hidden treats attribute lookup failures as not hidden
func (f *Filter) hidden(target metadata.AttributeTarget) bool {
	if f.config.HiddenAttribute == "" {
		return false
	}
	attrs, err := f.attributes.Attributes(target)
	if err != nil {
		debug.LogFrames("attribute lookup for %s failed: %v\n", target, err)
		return false
	}
	return metadata.HasAttribute(attrs, f.config.HiddenAttribute)
}

// Visible reports whether a frame may appear in the trace. Frames without a
// method identity are visible.
func (f *Filter) Visible(frame metadata.Frame) bool {
	m := f.identify(frame)
	if m == nil {
		return true
	}
	return f.visible(m)
}

func (f *Filter) visible(m *member) bool {
	if f.hiddenMethods[m.key()] {
		return false
	}
	if f.hidden(metadata.MethodTarget(m.method.ID)) {
		return false
	}
	if m.method.DeclaringType == "" {
		return true
	}
	if f.hidden(metadata.TypeTarget(m.method.DeclaringType)) {
		return false
	}
	if f.hiddenTypes[m.typeName] {
		return false
	}
	for _, prefix := range f.config.HiddenNamespaces {
		if strings.HasPrefix(m.typeName, prefix) {
			return false
		}
	}
	return true
}

// Collapsible reports whether a frame belongs to framework code
func (f *Filter) Collapsible(frame metadata.Frame) bool {
	return f.collapsible(f.identify(frame))
}

func (f *Filter) collapsible(m *member) bool {
	if m == nil || m.typeName == "" {
		return false
	}
	for _, prefix := range f.config.CollapsePrefixes {
		if strings.HasPrefix(m.typeName, prefix) {
			return true
		}
	}
	return false
}

type entry struct {
	frame  metadata.Frame
	member *member
}

// Apply returns the visible frames of an innermost-first sequence. A
// framework frame is dropped when the frame after it is also framework code,
// so each framework run keeps only the frame bordering user code. Frames
// without identity are dropped unless last; the last frame is always kept.
func (f *Filter) Apply(frames []metadata.Frame) []metadata.Frame {
	visible := make([]entry, 0, len(frames))
	for _, frame := range frames {
		m := f.identify(frame)
		if m != nil && !f.visible(m) {
			continue
		}
		visible = append(visible, entry{frame: frame, member: m})
	}

	out := make([]metadata.Frame, 0, len(visible))
	collapseNext := false
	for i, current := range visible {
		if i == len(visible)-1 {
			out = append(out, current.frame)
			break
		}
		if current.member == nil {
			continue
		}

		excluded := f.excluded[current.member.key()]
		if excluded {
			collapseNext = false
		}
		if (collapseNext || f.collapsible(current.member)) && !excluded {
			if f.collapsible(visible[i+1].member) {
				collapseNext = true
				continue
			}
			collapseNext = false
		}
		out = append(out, current.frame)
	}

	debug.LogFrames("%d raw frames, %d visible, %d after collapsing\n", len(frames), len(visible), len(out))
	return out
}
