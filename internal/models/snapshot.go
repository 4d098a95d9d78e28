package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fpl-optimizer/internal/fpl"
	"fpl-optimizer/pkg/database"
)

// Team is the persisted form of a league team.
type Team struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	ShortName string    `gorm:"size:10" json:"short_name"`
	Strength  int       `json:"strength"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Player is the persisted form of a pool player. Projection and
// availability are refreshed on every snapshot sync.
type Player struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	TeamID       int       `gorm:"index;not null" json:"team_id"`
	Team         Team      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Role         int       `gorm:"not null" json:"role"`
	Price        int       `gorm:"not null" json:"price"`
	Projected    float64   `json:"projected"`
	Availability int            `json:"availability"`
	Form         datatypes.JSON `json:"form"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Fixture is one team's side of a scheduled match.
type Fixture struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TeamID     int       `gorm:"index:idx_fixture_team_week;not null" json:"team_id"`
	OpponentID int       `gorm:"not null" json:"opponent_id"`
	Week       int       `gorm:"index:idx_fixture_team_week;not null" json:"week"`
	Home       bool      `json:"home"`
	CreatedAt  time.Time `json:"created_at"`
}

// SnapshotSync records one upstream refresh and what it excluded.
type SnapshotSync struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Players          int       `json:"players"`
	Teams            int       `json:"teams"`
	Fixtures         int       `json:"fixtures"`
	ExcludedPlayers  int       `json:"excluded_players"`
	ExcludedFixtures int       `json:"excluded_fixtures"`
	CreatedAt        time.Time `json:"created_at"`
}

// ReplaceSnapshot swaps the stored pool for a freshly validated one in a
// single transaction.
func ReplaceSnapshot(db *database.DB, snap fpl.Snapshot, report fpl.ExclusionReport) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []interface{}{&Fixture{}, &Player{}, &Team{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return err
			}
		}

		teams := make([]Team, 0, len(snap.Teams))
		for _, t := range snap.Teams {
			teams = append(teams, Team{ID: t.ID, Name: t.Name, ShortName: t.ShortName, Strength: t.Strength})
		}
		if len(teams) > 0 {
			if err := tx.Create(&teams).Error; err != nil {
				return err
			}
		}

		players := make([]Player, 0, len(snap.Players))
		for _, p := range snap.Players {
			form, err := json.Marshal(p.History)
			if err != nil {
				return err
			}
			players = append(players, Player{
				ID:           p.ID,
				Name:         p.Name,
				TeamID:       p.TeamID,
				Role:         int(p.Role),
				Price:        p.Price,
				Projected:    p.Projected,
				Availability: int(p.Availability),
				Form:         datatypes.JSON(form),
			})
		}
		if len(players) > 0 {
			if err := tx.CreateInBatches(&players, 200).Error; err != nil {
				return err
			}
		}

		fixtureRows := make([]Fixture, 0, len(snap.Fixtures))
		for _, f := range snap.Fixtures {
			fixtureRows = append(fixtureRows, Fixture{TeamID: f.TeamID, OpponentID: f.OpponentID, Week: f.Week, Home: f.Home})
		}
		if len(fixtureRows) > 0 {
			if err := tx.CreateInBatches(&fixtureRows, 200).Error; err != nil {
				return err
			}
		}

		return tx.Create(&SnapshotSync{
			Players:          len(snap.Players),
			Teams:            len(snap.Teams),
			Fixtures:         len(snap.Fixtures),
			ExcludedPlayers:  report.Players,
			ExcludedFixtures: report.Fixtures,
		}).Error
	})
}

// LoadSnapshot materializes the stored pool back into domain form.
func LoadSnapshot(db *database.DB) (fpl.Snapshot, error) {
	var snap fpl.Snapshot

	var teams []Team
	if err := db.Order("id ASC").Find(&teams).Error; err != nil {
		return snap, err
	}
	for _, t := range teams {
		snap.Teams = append(snap.Teams, fpl.Team{ID: t.ID, Name: t.Name, ShortName: t.ShortName, Strength: t.Strength})
	}

	var players []Player
	if err := db.Order("id ASC").Find(&players).Error; err != nil {
		return snap, err
	}
	for _, p := range players {
		var history []float64
		if len(p.Form) > 0 {
			if err := json.Unmarshal(p.Form, &history); err != nil {
				return snap, err
			}
		}
		snap.Players = append(snap.Players, fpl.Player{
			ID:           p.ID,
			Name:         p.Name,
			TeamID:       p.TeamID,
			Role:         fpl.Role(p.Role),
			Price:        p.Price,
			Projected:    p.Projected,
			Availability: fpl.Availability(p.Availability),
			History:      history,
		})
	}

	var fixtureRows []Fixture
	if err := db.Order("week ASC, team_id ASC").Find(&fixtureRows).Error; err != nil {
		return snap, err
	}
	for _, f := range fixtureRows {
		snap.Fixtures = append(snap.Fixtures, fpl.Fixture{TeamID: f.TeamID, OpponentID: f.OpponentID, Week: f.Week, Home: f.Home})
	}

	return snap, nil
}

// LastSync returns the most recent refresh record, nil when none exists.
func LastSync(db *database.DB) (*SnapshotSync, error) {
	var sync SnapshotSync
	err := db.Order("created_at DESC").First(&sync).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sync, nil
}
