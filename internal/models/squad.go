package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fpl-optimizer/internal/fpl"
	"fpl-optimizer/pkg/database"
)

// SavedSquad stores one solved squad so a later transfer plan can diff
// against it.
type SavedSquad struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	Name           string         `gorm:"size:100" json:"name"`
	Squad          datatypes.JSON `gorm:"not null" json:"squad"`
	WeightedPoints float64        `json:"weighted_points"`
	TotalPrice     int            `json:"total_price"`
	ProvenOptimal  bool           `json:"proven_optimal"`
	WindowFirst    int            `json:"window_first"`
	WindowLength   int            `json:"window_length"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (s *SavedSquad) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Decode unpacks the stored squad payload.
func (s *SavedSquad) Decode() (*fpl.Squad, error) {
	var squad fpl.Squad
	if err := json.Unmarshal(s.Squad, &squad); err != nil {
		return nil, err
	}
	return &squad, nil
}

// SaveSquad persists a solved squad under an optional display name.
func SaveSquad(db *database.DB, name string, squad *fpl.Squad, weightedPoints float64, proven bool, window fpl.GameweekWindow) (*SavedSquad, error) {
	payload, err := json.Marshal(squad)
	if err != nil {
		return nil, err
	}
	row := &SavedSquad{
		Name:           name,
		Squad:          datatypes.JSON(payload),
		WeightedPoints: weightedPoints,
		TotalPrice:     squad.TotalPrice(),
		ProvenOptimal:  proven,
		WindowFirst:    window.First,
		WindowLength:   window.Length,
	}
	if err := db.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// GetSquad fetches one saved squad by ID.
func GetSquad(db *database.DB, id string) (*SavedSquad, error) {
	var row SavedSquad
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListSquads returns saved squads newest first.
func ListSquads(db *database.DB, limit int) ([]SavedSquad, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []SavedSquad
	err := db.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// DeleteSquad removes a saved squad, reporting whether it existed.
func DeleteSquad(db *database.DB, id string) (bool, error) {
	result := db.Where("id = ?", id).Delete(&SavedSquad{})
	return result.RowsAffected > 0, result.Error
}
