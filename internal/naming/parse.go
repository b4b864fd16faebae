package naming

import (
	"strconv"
	"strings"
)

// prefix used by the compiler for a handful of generated names
const csPrefix = "CS$"

// Parsed is the result of a successful parse
type Parsed struct {
	Name string
	Kind Kind
	// OpenBracket and CloseBracket are byte offsets of the balanced '<' '>' pair
	OpenBracket  int
	CloseBracket int
}

// Enclosing returns the enclosing method name between the brackets
func (p Parsed) Enclosing() string {
	return p.Name[p.OpenBracket+1 : p.CloseBracket]
}

// Parse matches name against [CS$]<middle>K[suffix]. ok is false when the
// name is not generated, in which case it is already logical.
func Parse(name string) (p Parsed, ok bool) {
	open := -1
	switch {
	case strings.HasPrefix(name, csPrefix+"<"):
		open = len(csPrefix)
	case strings.HasPrefix(name, "<"):
		open = 0
	default:
		return Parsed{}, false
	}

	closing := indexOfBalanced(name, open, '>')
	if closing < 0 || closing+1 >= len(name) {
		return Parsed{}, false
	}

	c := name[closing+1]
	if !isKindChar(c) {
		return Parsed{}, false
	}

	return Parsed{Name: name, Kind: Kind(c), OpenBracket: open, CloseBracket: closing}, true
}

// indexOfBalanced finds the bracket closing the one at openAt. Depth counts
// occurrences of the same opening character so nested generic names do not
// terminate the scan early.
func indexOfBalanced(s string, openAt int, closing byte) int {
	opening := s[openAt]
	depth := 1
	for i := openAt + 1; i < len(s); i++ {
		switch s[i] {
		case opening:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// SubName returns the generated member's own name. Local functions yield the
// declared name ("Inner" for "<Outer>g__Inner|0_1"); lambdas yield "" with
// ok true, meaning anonymous. Other kinds report ok false.
func (p Parsed) SubName() (name string, ok bool) {
	switch p.Kind {
	case LambdaMethod:
		return "", true
	case LocalFunction:
		start := strings.IndexByte(p.Name[p.CloseBracket+1:], byte(LocalFunction))
		if start < 0 {
			return "", false
		}
		// skip the tag and the "__" separator
		start += p.CloseBracket + 1 + 3
		if start >= len(p.Name) {
			return "", false
		}
		end := strings.Index(p.Name[start:], "|")
		if end < 0 {
			return "", false
		}
		return p.Name[start : start+end], true
	}
	return "", false
}

// MatchHint returns the "|<n>_" token of a local function name, used to
// recognize references to it from candidate bodies. Empty when absent.
func (p Parsed) MatchHint() string {
	if p.Kind != LocalFunction {
		return ""
	}
	return matchHint(p.Name)
}

func matchHint(name string) string {
	start := strings.Index(name, "|")
	if start < 1 {
		return ""
	}
	end := strings.Index(name[start:], "_")
	if end < 0 {
		return ""
	}
	return name[start : start+end+1]
}

// LambdaStem splits a lambda name such as "<Run>b__3_1" into the sibling stem
// "<Run>b__3_" and the trailing index 1. ok is false when the name carries no
// lambda marker or the trailing part is not a number.
func LambdaStem(name string) (stem string, index int, ok bool) {
	marker := strings.Index(name, string(rune(LambdaMethod))+"__")
	if marker < 0 {
		return "", 0, false
	}
	start := marker + 3
	if next := strings.IndexByte(name[start:], '_'); next >= 0 {
		start += next + 1
	}

	index, err := strconv.Atoi(name[start:])
	if err != nil {
		return "", 0, false
	}
	return name[:start], index, true
}
