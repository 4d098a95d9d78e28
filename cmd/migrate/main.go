package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"fpl-optimizer/internal/fpl"
	"fpl-optimizer/internal/models"
	"fpl-optimizer/pkg/config"
	"fpl-optimizer/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	if err := db.AutoMigrate(
		&models.Team{},
		&models.Player{},
		&models.Fixture{},
		&models.SnapshotSync{},
		&models.SavedSquad{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_players_role ON players(role)",
		"CREATE INDEX IF NOT EXISTS idx_players_price ON players(price)",
		"CREATE INDEX IF NOT EXISTS idx_fixtures_week ON fixtures(week)",
		"CREATE INDEX IF NOT EXISTS idx_saved_squads_created ON saved_squads(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	// Drop tables in reverse order to handle foreign key constraints
	tables := []string{
		"saved_squads",
		"snapshot_syncs",
		"fixtures",
		"players",
		"teams",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

func seedData(db *database.DB) error {
	snap := fpl.Snapshot{
		Teams: []fpl.Team{
			{ID: 1, Name: "Arsenal", ShortName: "ARS", Strength: 5},
			{ID: 2, Name: "Manchester City", ShortName: "MCI", Strength: 5},
			{ID: 3, Name: "Liverpool", ShortName: "LIV", Strength: 5},
			{ID: 4, Name: "Aston Villa", ShortName: "AVL", Strength: 4},
			{ID: 5, Name: "Tottenham", ShortName: "TOT", Strength: 4},
			{ID: 6, Name: "Brighton", ShortName: "BHA", Strength: 3},
			{ID: 7, Name: "Brentford", ShortName: "BRE", Strength: 3},
			{ID: 8, Name: "Everton", ShortName: "EVE", Strength: 2},
			{ID: 9, Name: "Luton", ShortName: "LUT", Strength: 1},
			{ID: 10, Name: "Sheffield United", ShortName: "SHU", Strength: 1},
		},
		Players: []fpl.Player{
			{ID: 1, Name: "Raya", TeamID: 1, Role: fpl.RoleKeeper, Price: 52, Projected: 4.4},
			{ID: 2, Name: "Ederson", TeamID: 2, Role: fpl.RoleKeeper, Price: 55, Projected: 4.6},
			{ID: 3, Name: "Flekken", TeamID: 7, Role: fpl.RoleKeeper, Price: 45, Projected: 3.6},
			{ID: 4, Name: "Saliba", TeamID: 1, Role: fpl.RoleDefender, Price: 60, Projected: 4.8},
			{ID: 5, Name: "Alexander-Arnold", TeamID: 3, Role: fpl.RoleDefender, Price: 82, Projected: 5.8},
			{ID: 6, Name: "Gvardiol", TeamID: 2, Role: fpl.RoleDefender, Price: 62, Projected: 4.9},
			{ID: 7, Name: "Dunk", TeamID: 6, Role: fpl.RoleDefender, Price: 47, Projected: 3.7},
			{ID: 8, Name: "Mykolenko", TeamID: 8, Role: fpl.RoleDefender, Price: 42, Projected: 3.1},
			{ID: 9, Name: "Pinnock", TeamID: 7, Role: fpl.RoleDefender, Price: 45, Projected: 3.4},
			{ID: 10, Name: "Saka", TeamID: 1, Role: fpl.RoleMidfielder, Price: 90, Projected: 6.8},
			{ID: 11, Name: "Foden", TeamID: 2, Role: fpl.RoleMidfielder, Price: 82, Projected: 6.4},
			{ID: 12, Name: "Salah", TeamID: 3, Role: fpl.RoleMidfielder, Price: 130, Projected: 8.6},
			{ID: 13, Name: "Son", TeamID: 5, Role: fpl.RoleMidfielder, Price: 98, Projected: 7.1},
			{ID: 14, Name: "Mitoma", TeamID: 6, Role: fpl.RoleMidfielder, Price: 65, Projected: 5.0},
			{ID: 15, Name: "Mbeumo", TeamID: 7, Role: fpl.RoleMidfielder, Price: 68, Projected: 5.2},
			{ID: 16, Name: "Haaland", TeamID: 2, Role: fpl.RoleForward, Price: 141, Projected: 9.4},
			{ID: 17, Name: "Watkins", TeamID: 4, Role: fpl.RoleForward, Price: 88, Projected: 6.6},
			{ID: 18, Name: "Calvert-Lewin", TeamID: 8, Role: fpl.RoleForward, Price: 58, Projected: 4.2},
		},
		Fixtures: []fpl.Fixture{
			{TeamID: 1, OpponentID: 9, Week: 1, Home: true},
			{TeamID: 9, OpponentID: 1, Week: 1, Home: false},
			{TeamID: 2, OpponentID: 10, Week: 1, Home: true},
			{TeamID: 10, OpponentID: 2, Week: 1, Home: false},
			{TeamID: 3, OpponentID: 8, Week: 1, Home: false},
			{TeamID: 8, OpponentID: 3, Week: 1, Home: true},
			{TeamID: 1, OpponentID: 2, Week: 2, Home: false},
			{TeamID: 2, OpponentID: 1, Week: 2, Home: true},
			{TeamID: 3, OpponentID: 5, Week: 2, Home: true},
			{TeamID: 5, OpponentID: 3, Week: 2, Home: false},
		},
	}

	clean, report := fpl.Validate(snap)
	if err := models.ReplaceSnapshot(db, clean, report); err != nil {
		return fmt.Errorf("failed to seed snapshot: %w", err)
	}

	logrus.Infof("Seeded %d players, %d teams, %d fixtures", len(clean.Players), len(clean.Teams), len(clean.Fixtures))
	return nil
}
