package mcp

import (
	"encoding/json"
	"fmt"
	"sort"
)

// UnknownField represents a field that was passed but not recognized
type UnknownField struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// DemystifyParams are the arguments of demystify_trace
type DemystifyParams struct {
	Dump       string `json:"dump"`
	Parameters string `json:"parameters,omitempty"` // types, full, short, none
	Markers    *bool  `json:"markers,omitempty"`
	Locations  *bool  `json:"locations,omitempty"`
	Frames     bool   `json:"frames,omitempty"` // include per-frame structure

	Warnings []UnknownField `json:"-"`
}

// UnmarshalJSON accepts unknown fields, reporting them as warnings
func (p *DemystifyParams) UnmarshalJSON(data []byte) error {
	type Alias DemystifyParams
	warnings, err := collectUnknownFields(data, map[string]struct{}{
		"dump": {}, "parameters": {}, "markers": {}, "locations": {}, "frames": {},
	})
	if err != nil {
		return err
	}
	var alias Alias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*p = DemystifyParams(alias)
	p.Warnings = warnings
	return nil
}

// ParseNameParams are the arguments of parse_generated_name
type ParseNameParams struct {
	Names []string `json:"names"`
	Kind  string   `json:"kind,omitempty"` // only report names of this kind

	Warnings []UnknownField `json:"-"`
}

// UnmarshalJSON accepts a single "name" as well as "names"
func (p *ParseNameParams) UnmarshalJSON(data []byte) error {
	type Alias ParseNameParams
	warnings, err := collectUnknownFields(data, map[string]struct{}{
		"names": {}, "name": {}, "kind": {},
	})
	if err != nil {
		return err
	}
	var aux struct {
		Alias
		Name string `json:"name,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = ParseNameParams(aux.Alias)
	if aux.Name != "" {
		p.Names = append([]string{aux.Name}, p.Names...)
	}
	p.Warnings = warnings
	return nil
}

// collectUnknownFields returns the top-level fields of data outside known,
// sorted by name
func collectUnknownFields(data []byte, known map[string]struct{}) ([]UnknownField, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var warnings []UnknownField
	for key, value := range raw {
		if _, ok := known[key]; ok {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(value, &v); err != nil {
			v = string(value)
		}
		warnings = append(warnings, UnknownField{Name: key, Value: v})
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Name < warnings[j].Name })
	return warnings, nil
}

// warningMessages renders unknown fields for a response
func warningMessages(fields []UnknownField, extra ...string) []string {
	var out []string
	for _, f := range fields {
		out = append(out, fmt.Sprintf("unknown parameter %q ignored", f.Name))
	}
	return append(out, extra...)
}
