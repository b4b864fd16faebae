package dump

import (
	"fmt"

	"github.com/hbollon/go-edlib"
)

// suggest returns a "did you mean" hint for a dangling reference, or "" when
// no known identity is close enough
func suggest(ref string, known []string) string {
	limit := max(2, len(ref)/4)
	best := ""
	bestDistance := limit + 1
	for _, candidate := range known {
		d := edlib.LevenshteinDistance(ref, candidate)
		if d < bestDistance {
			bestDistance = d
			best = candidate
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
