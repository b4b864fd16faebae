package testhelpers

import (
	"errors"

	"github.com/standardbeagle/demystify/internal/metadata"
)

// ErrInjected is returned by FaultyProvider for every injected failure
var ErrInjected = errors.New("injected metadata failure")

// FaultyProvider wraps a provider and fails selected lookups
type FaultyProvider struct {
	metadata.Provider

	FailAttributes   bool
	FailInstructions bool
	FailLocals       bool
	// PanicInstructions panics instead of returning an error
	PanicInstructions bool
	// PanicTypes panics on every type lookup
	PanicTypes bool
}

// Type implements metadata.Provider
func (p *FaultyProvider) Type(id metadata.TypeID) (*metadata.Type, error) {
	if p.PanicTypes {
		panic("type table corrupted")
	}
	return p.Provider.Type(id)
}

// Attributes implements metadata.Provider
func (p *FaultyProvider) Attributes(target metadata.AttributeTarget) ([]metadata.Attribute, error) {
	if p.FailAttributes {
		return nil, ErrInjected
	}
	return p.Provider.Attributes(target)
}

// Instructions implements metadata.Provider
func (p *FaultyProvider) Instructions(id metadata.MethodID) ([]metadata.Instruction, error) {
	if p.PanicInstructions {
		panic("malformed method body")
	}
	if p.FailInstructions {
		return nil, ErrInjected
	}
	return p.Provider.Instructions(id)
}

// LocalVariables implements metadata.Provider
func (p *FaultyProvider) LocalVariables(id metadata.MethodID) ([]metadata.TypeID, error) {
	if p.FailLocals {
		return nil, ErrInjected
	}
	return p.Provider.LocalVariables(id)
}
