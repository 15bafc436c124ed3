package roster

import (
	"github.com/specbot/kickbot/pkg/fuzzy"
)

// Match is a roster entry a read name resolved to.
type Match struct {
	Name string
	ID   string
}

// Reconciler resolves read names to roster entries.
type Reconciler struct {
	matcher fuzzy.Matcher
}

// NewReconciler creates a reconciler using the player threshold of matcher.
func NewReconciler(matcher fuzzy.Matcher) Reconciler {
	return Reconciler{matcher: matcher}
}

// Resolve finds candidate in r. An exact name on either team wins; only
// then are both teams searched fuzzily, team 1 fully before team 2. Fuzzy
// candidates are tried in name order and the first one above the threshold wins.
func (rc Reconciler) Resolve(r *TeamRoster, candidate string) (Match, bool) {
	if r == nil {
		return Match{}, false
	}
	teams := []map[string]string{r.Team1, r.Team2}
	for _, team := range teams {
		if id, ok := team[candidate]; ok {
			return Match{Name: candidate, ID: id}, true
		}
	}
	for _, team := range teams {
		if m, ok := rc.fuzzyTeam(team, candidate); ok {
			return m, true
		}
	}
	return Match{}, false
}

func (rc Reconciler) fuzzyTeam(team map[string]string, candidate string) (Match, bool) {
	for _, name := range sortedNames(team) {
		if rc.matcher.SamePlayer(candidate, name) {
			return Match{Name: name, ID: team[name]}, true
		}
	}
	return Match{}, false
}
