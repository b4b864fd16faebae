package naming

// Description is the decoded structure of a member name, as reported by the
// parse command and the MCP parse tool
type Description struct {
	Name      string `json:"name"`
	Generated bool   `json:"generated"`
	Kind      string `json:"kind,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Enclosing string `json:"enclosing,omitempty"`
	SubName   string `json:"sub_name,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
	MatchHint string `json:"match_hint,omitempty"`
	// LambdaStem and LambdaIndex identify a lambda among its siblings
	LambdaStem  string `json:"lambda_stem,omitempty"`
	LambdaIndex *int   `json:"lambda_index,omitempty"`
}

// Describe parses name and reports every component it carries
func Describe(name string) Description {
	d := Description{Name: name}
	p, ok := Parse(name)
	if !ok {
		return d
	}

	d.Generated = true
	d.Kind = p.Kind.String()
	d.Tag = string(rune(p.Kind))
	d.Enclosing = p.Enclosing()
	if sub, ok := p.SubName(); ok {
		d.SubName = sub
		d.Anonymous = sub == ""
	}
	d.MatchHint = p.MatchHint()

	if p.Kind == LambdaMethod {
		if stem, index, ok := LambdaStem(name); ok {
			d.LambdaStem = stem
			d.LambdaIndex = &index
		}
	}
	return d
}
