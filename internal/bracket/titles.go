package bracket

import "strings"

var DefaultRoundTitles = []string{
	"Qualifiers",
	"Round of 64",
	"Round of 32",
	"Round of 16",
	"Quarterfinals",
	"Semifinals",
	"Third Place Playoff",
	"Final",
	"Grand Final",
}

// SuggestRoundTitles keeps catalogue order and drops anything a round already
// uses as its display name. Purely a convenience, duplicates are still allowed.
func SuggestRoundTitles(catalog []string, rounds []Round) []string {
	used := make(map[string]bool, len(rounds))
	for _, r := range rounds {
		if r.DisplayName != "" {
			used[strings.ToLower(r.DisplayName)] = true
		}
	}

	suggestions := make([]string, 0, len(catalog))
	for _, title := range catalog {
		title = strings.TrimSpace(title)
		key := strings.ToLower(title)
		if title == "" || used[key] {
			continue
		}
		used[key] = true
		suggestions = append(suggestions, title)
	}
	return suggestions
}
