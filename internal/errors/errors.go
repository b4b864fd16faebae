package errors

import (
	"fmt"
	"time"
)

// Error types for the demystifier
type ErrorType string

const (
	// Metadata errors
	ErrorTypeMetadata   ErrorType = "metadata"
	ErrorTypeResolution ErrorType = "resolution"

	// Rendering errors
	ErrorTypeRender ErrorType = "render"

	// Input errors
	ErrorTypeDump ErrorType = "dump"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// MetadataError represents a failed call into a metadata provider
type MetadataError struct {
	Type       ErrorType
	Operation  string
	Target     string
	Underlying error
	Timestamp  time.Time
}

// NewMetadataError creates a new metadata error for the given provider operation
func NewMetadataError(op, target string, err error) *MetadataError {
	return &MetadataError{
		Type:       ErrorTypeMetadata,
		Operation:  op,
		Target:     target,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *MetadataError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Target, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *MetadataError) Unwrap() error {
	return e.Underlying
}

// ResolutionError represents a candidate that could not be inspected while
// searching for the source method of a generated name
type ResolutionError struct {
	Type       ErrorType
	Method     string
	Candidate  string
	Stage      string
	Underlying error
	Timestamp  time.Time
}

// NewResolutionError creates a new resolution error
func NewResolutionError(method, stage string, err error) *ResolutionError {
	return &ResolutionError{
		Type:       ErrorTypeResolution,
		Method:     method,
		Stage:      stage,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithCandidate records which candidate was being inspected
func (e *ResolutionError) WithCandidate(candidate string) *ResolutionError {
	e.Candidate = candidate
	return e
}

// Error implements the error interface
func (e *ResolutionError) Error() string {
	if e.Candidate != "" {
		return fmt.Sprintf("resolving %s: %s of candidate %s failed: %v", e.Method, e.Stage, e.Candidate, e.Underlying)
	}
	return fmt.Sprintf("resolving %s: %s failed: %v", e.Method, e.Stage, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ResolutionError) Unwrap() error {
	return e.Underlying
}

// RenderError represents a panic recovered while rendering a trace
type RenderError struct {
	Type      ErrorType
	Stage     string
	Recovered interface{}
	Timestamp time.Time
}

// NewRenderError creates a render error from a recovered panic value
func NewRenderError(stage string, recovered interface{}) *RenderError {
	return &RenderError{
		Type:      ErrorTypeRender,
		Stage:     stage,
		Recovered: recovered,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s panicked: %v", e.Stage, e.Recovered)
}

// Unwrap returns the recovered value when it is an error
func (e *RenderError) Unwrap() error {
	if err, ok := e.Recovered.(error); ok {
		return err
	}
	return nil
}

// DumpError represents a trace dump document that could not be loaded
type DumpError struct {
	Type       ErrorType
	Path       string
	Field      string
	Underlying error
	Timestamp  time.Time
}

// NewDumpError creates a new dump error
func NewDumpError(path string, err error) *DumpError {
	return &DumpError{
		Type:       ErrorTypeDump,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithField records the document field that failed validation
func (e *DumpError) WithField(field string) *DumpError {
	e.Field = field
	return e
}

// Error implements the error interface
func (e *DumpError) Error() string {
	switch {
	case e.Path != "" && e.Field != "":
		return fmt.Sprintf("dump %s: field %s: %v", e.Path, e.Field, e.Underlying)
	case e.Field != "":
		return fmt.Sprintf("dump field %s: %v", e.Field, e.Underlying)
	case e.Path != "":
		return fmt.Sprintf("dump %s: %v", e.Path, e.Underlying)
	}
	return fmt.Sprintf("dump: %v", e.Underlying)
}

// Unwrap returns the underlying error
func (e *DumpError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrOrNil returns nil when no errors were collected
func (e *MultiError) ErrOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
