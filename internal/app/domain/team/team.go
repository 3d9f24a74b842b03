// Package team models a project's team: one leader and an ordered, duplicate
// free member list.
package team

import "time"

// DefaultName is used when a team is created without a name.
const DefaultName = "hero_team"

// Team is one row of team_db.
type Team struct {
	ID        string
	ProjectID string
	Name      string
	Leader    string
	Members   []string
	CreatedAt time.Time
}

// HasMember reports whether userID is already on the team.
func (t Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// AddMember appends userID when absent and reports whether the list changed.
func (t *Team) AddMember(userID string) bool {
	if t.HasMember(userID) {
		return false
	}
	t.Members = append(t.Members, userID)
	return true
}

// NormalizeMembers drops blanks and repeats, keeping first occurrences in
// order.
func NormalizeMembers(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
