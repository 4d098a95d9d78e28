package fpl

import "math"

// Snapshot is the fully materialized input handed to a planning call.
// Callers own acquisition and caching; the core never fetches.
type Snapshot struct {
	Players  []Player  `json:"players"`
	Teams    []Team    `json:"teams"`
	Fixtures []Fixture `json:"fixtures"`
}

// Exclusion reasons reported by Validate.
const (
	ExcludeInvalidRole       = "invalid-role"
	ExcludeMissingPrice      = "missing-price"
	ExcludeMissingProjection = "missing-projection"
	ExcludeUnknownTeam       = "unknown-team"
	ExcludeInvalidWeek       = "invalid-week"
)

// ExclusionReport counts entities dropped at the boundary so the caller can
// judge whether the remaining coverage is acceptable.
type ExclusionReport struct {
	Players  int            `json:"players"`
	Fixtures int            `json:"fixtures"`
	Reasons  map[string]int `json:"reasons,omitempty"`
}

func (r *ExclusionReport) note(reason string) {
	if r.Reasons == nil {
		r.Reasons = make(map[string]int)
	}
	r.Reasons[reason]++
}

// Validate drops players and fixtures with missing required fields and
// returns the cleaned snapshot plus a count of what was excluded. The core
// never guesses a missing projection or substitutes defaults.
func Validate(raw Snapshot) (Snapshot, ExclusionReport) {
	report := ExclusionReport{}
	teams := make(map[int]bool, len(raw.Teams))
	for _, t := range raw.Teams {
		teams[t.ID] = true
	}

	clean := Snapshot{Teams: raw.Teams}
	for _, p := range raw.Players {
		switch {
		case !p.Role.Valid():
			report.Players++
			report.note(ExcludeInvalidRole)
		case p.Price <= 0:
			report.Players++
			report.note(ExcludeMissingPrice)
		case math.IsNaN(p.Projected) || math.IsInf(p.Projected, 0):
			report.Players++
			report.note(ExcludeMissingProjection)
		case !teams[p.TeamID]:
			report.Players++
			report.note(ExcludeUnknownTeam)
		default:
			clean.Players = append(clean.Players, p)
		}
	}

	for _, f := range raw.Fixtures {
		switch {
		case f.Week <= 0:
			report.Fixtures++
			report.note(ExcludeInvalidWeek)
		case !teams[f.TeamID] || !teams[f.OpponentID]:
			report.Fixtures++
			report.note(ExcludeUnknownTeam)
		default:
			clean.Fixtures = append(clean.Fixtures, f)
		}
	}

	return clean, report
}
