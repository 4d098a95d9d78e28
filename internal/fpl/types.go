package fpl

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Role is a player's position. Values match the element_type codes used by
// the FPL API so snapshots convert without a lookup table.
type Role int

const (
	RoleKeeper Role = iota + 1
	RoleDefender
	RoleMidfielder
	RoleForward
)

var roleNames = map[Role]string{
	RoleKeeper:     "GK",
	RoleDefender:   "DEF",
	RoleMidfielder: "MID",
	RoleForward:    "FWD",
}

// Roles lists all positions in squad order.
var Roles = []Role{RoleKeeper, RoleDefender, RoleMidfielder, RoleForward}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole accepts the short names used across the API surface.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if name == s {
			return role, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Availability is the fitness flag supplied by the data feed.
type Availability int

const (
	Fit Availability = iota
	Doubtful
	Unavailable
)

func (a Availability) String() string {
	switch a {
	case Fit:
		return "fit"
	case Doubtful:
		return "doubtful"
	case Unavailable:
		return "unavailable"
	}
	return fmt.Sprintf("Availability(%d)", int(a))
}

// ParseAvailability maps the FPL status codes: "a" available, "d" doubtful,
// everything else ("i", "s", "u", "n") unavailable.
func ParseAvailability(status string) Availability {
	switch status {
	case "a", "":
		return Fit
	case "d":
		return Doubtful
	default:
		return Unavailable
	}
}

// Player is an immutable snapshot row for one planning call. Price is in
// integer tenths of a million, as the feed reports it. Projected is an
// opaque horizon-level expected-points scalar computed externally; the core
// only assumes higher is better.
type Player struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	TeamID       int          `json:"team_id"`
	Role         Role         `json:"role"`
	Price        int          `json:"price"`
	Projected    float64      `json:"projected"`
	Availability Availability `json:"availability"`
	// History holds recent per-gameweek returns, oldest first. Used only
	// for trend analysis; may be empty.
	History []float64 `json:"history,omitempty"`
}

// Team carries the schedule-independent strength rating that fixture
// difficulty derives from.
type Team struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Strength  int    `json:"strength"`
}

// Fixture is one scheduled match from one team's perspective.
type Fixture struct {
	TeamID     int  `json:"team_id"`
	OpponentID int  `json:"opponent_id"`
	Week       int  `json:"week"`
	Home       bool `json:"home"`
}

// GameweekWindow is the contiguous planning horizon. All difficulty and
// projection figures are relative to one window.
type GameweekWindow struct {
	First  int `json:"first"`
	Length int `json:"length"`
}

func (w GameweekWindow) Last() int { return w.First + w.Length - 1 }

func (w GameweekWindow) Contains(week int) bool {
	return week >= w.First && week <= w.Last()
}

func (w GameweekWindow) Weeks() []int {
	weeks := make([]int, 0, w.Length)
	for gw := w.First; gw <= w.Last(); gw++ {
		weeks = append(weeks, gw)
	}
	return weeks
}

// Formation is the outfield split of the starting eleven.
type Formation struct {
	Defenders   int `json:"defenders"`
	Midfielders int `json:"midfielders"`
	Forwards    int `json:"forwards"`
}

func (f Formation) String() string {
	return fmt.Sprintf("%d-%d-%d", f.Defenders, f.Midfielders, f.Forwards)
}

// Squad is a full 15-player roster: eleven starters plus a bench in
// substitution-priority order (the keeper occupies slot 0, outfield
// substitutes follow in priority order).
type Squad struct {
	Starting  []Player  `json:"starting"`
	Bench     []Player  `json:"bench"`
	Formation Formation `json:"formation"`
}

// Players returns all 15 members, starters first.
func (s *Squad) Players() []Player {
	all := make([]Player, 0, len(s.Starting)+len(s.Bench))
	all = append(all, s.Starting...)
	all = append(all, s.Bench...)
	return all
}

func (s *Squad) Contains(playerID int) bool {
	for _, p := range s.Players() {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

func (s *Squad) TotalPrice() int {
	total := 0
	for _, p := range s.Players() {
		total += p.Price
	}
	return total
}

// TeamCounts returns how many squad members each club contributes.
func (s *Squad) TeamCounts() map[int]int {
	counts := make(map[int]int)
	for _, p := range s.Players() {
		counts[p.TeamID]++
	}
	return counts
}

// RoleCounts returns the position split across all 15 members.
func (s *Squad) RoleCounts() map[Role]int {
	counts := make(map[Role]int)
	for _, p := range s.Players() {
		counts[p.Role]++
	}
	return counts
}

// Chip is one of the four one-time power-ups.
type Chip int

const (
	ChipWildcard Chip = iota
	ChipBenchBoost
	ChipTripleCaptain
	ChipFreeHit
)

var chipNames = map[Chip]string{
	ChipWildcard:      "wildcard",
	ChipBenchBoost:    "bench_boost",
	ChipTripleCaptain: "triple_captain",
	ChipFreeHit:       "free_hit",
}

func (c Chip) String() string {
	if name, ok := chipNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Chip(%d)", int(c))
}

func (c Chip) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Chip) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	chip, err := ParseChip(name)
	if err != nil {
		return err
	}
	*c = chip
	return nil
}

func ParseChip(s string) (Chip, error) {
	for chip, name := range chipNames {
		if name == s {
			return chip, nil
		}
	}
	return 0, fmt.Errorf("unknown chip %q", s)
}

// Priority is the ordinal tier attached to recommendations.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityVeryHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityVeryHigh:
		return "very_high"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ChipRecommendation is one (chip, week) timing proposal. Reason is a
// machine-readable code such as "precedes-double-gameweek"; Benefit is the
// comparable magnitude that ranks proposals within a tier, and Detail is a
// human-readable gloss.
type ChipRecommendation struct {
	Chip     Chip     `json:"chip"`
	Week     int      `json:"week"`
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason"`
	Benefit  float64  `json:"benefit"`
	Detail   string   `json:"detail,omitempty"`
}

// Transfer is one out/in pair within a plan.
type Transfer struct {
	Out  Player  `json:"out"`
	In   Player  `json:"in"`
	Gain float64 `json:"gain"`
}

// SortPlayersByID orders players by identifier ascending, the stable
// ordering all deterministic tie-breaks bottom out on.
func SortPlayersByID(players []Player) {
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
}
