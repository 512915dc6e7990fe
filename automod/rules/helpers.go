package rules

import (
	"fmt"
	"time"

	"github.com/houraiteahouse/hourai/automod/engine"
)

func dedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range in {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

// Names a member is known by in the guild: username, global display name and nickname, without blanks or repeats.
func candidateNames(m engine.Member) []string {
	var names []string
	for _, n := range []string{m.Username, m.GlobalName, m.Nick} {
		if n != "" {
			names = append(names, n)
		}
	}
	return dedupeStrings(names)
}

// formats durations the way moderators read them: "30 days", "6 hours", falling back to time.Duration syntax
func humanDuration(d time.Duration) string {
	day := 24 * time.Hour
	switch {
	case d >= day && d%day == 0:
		n := int(d / day)
		if n == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", n)
	case d >= time.Hour && d%time.Hour == 0:
		n := int(d / time.Hour)
		if n == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", n)
	default:
		return d.String()
	}
}
