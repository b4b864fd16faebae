package naming

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// KindResolution is the result of resolving user input to a Kind
type KindResolution struct {
	Original  string
	Kind      Kind
	Resolved  bool
	MatchType string // "exact", "alias", "tag", "prefix", "fuzzy", "none"
	Warning   string
}

var kindAliases = map[string]Kind{
	"lambda":        LambdaMethod,
	"closure":       LambdaDisplayClass,
	"display_class": LambdaDisplayClass,
	"local":         LocalFunction,
	"local_func":    LocalFunction,
	"state_machine": StateMachineType,
	"async":         StateMachineType,
	"iterator":      StateMachineType,
	"backing_field": AutoPropertyBackingField,
}

// KindResolver maps kind names typed on the command line or sent by agents
// to Kind values, with prefix and fuzzy fallbacks.
type KindResolver struct {
	byName    map[string]Kind
	canonical []string
}

// NewKindResolver creates a resolver over all named kinds
func NewKindResolver() *KindResolver {
	r := &KindResolver{byName: make(map[string]Kind, len(kindNames))}
	for k, name := range kindNames {
		r.byName[name] = k
		r.canonical = append(r.canonical, name)
	}
	sort.Strings(r.canonical)
	return r
}

// Resolve resolves one input. Priority: exact > alias > tag character > prefix > fuzzy.
func (r *KindResolver) Resolve(input string) KindResolution {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if normalized == "" {
		return KindResolution{Original: input, MatchType: "none"}
	}

	if k, ok := r.byName[normalized]; ok {
		return KindResolution{Original: input, Kind: k, Resolved: true, MatchType: "exact"}
	}

	if k, ok := kindAliases[normalized]; ok {
		return KindResolution{Original: input, Kind: k, Resolved: true, MatchType: "alias"}
	}

	if len(normalized) == 1 && isKindChar(normalized[0]) {
		return KindResolution{Original: input, Kind: Kind(normalized[0]), Resolved: true, MatchType: "tag"}
	}

	if len(normalized) >= 3 {
		for _, name := range r.canonical {
			if strings.HasPrefix(name, normalized) {
				return KindResolution{
					Original:  input,
					Kind:      r.byName[name],
					Resolved:  true,
					MatchType: "prefix",
					Warning:   fmt.Sprintf("'%s' interpreted as '%s' (prefix match)", input, name),
				}
			}
		}
	}

	best, distance := r.closest(normalized)
	if distance > 0 && distance <= 3 {
		return KindResolution{
			Original:  input,
			Kind:      r.byName[best],
			Resolved:  true,
			MatchType: "fuzzy",
			Warning:   fmt.Sprintf("'%s' interpreted as '%s' (did you mean '%s'?)", input, best, best),
		}
	}

	return KindResolution{
		Original:  input,
		MatchType: "none",
		Warning:   fmt.Sprintf("unknown generated-name kind '%s'", input),
	}
}

func (r *KindResolver) closest(input string) (string, int) {
	best := ""
	bestDistance := 1000
	for _, name := range r.canonical {
		d := edlib.LevenshteinDistance(input, name)
		if d < bestDistance {
			bestDistance = d
			best = name
		}
	}
	return best, bestDistance
}
