package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/4ms/u-boot-stm32mp25/pkg/db"
	"github.com/4ms/u-boot-stm32mp25/pkg/panel"
)

// getDBPath returns the path to the run database
func getDBPath() string {
	if dbPath := os.Getenv("LVDSCTL_DB_PATH"); dbPath != "" {
		return dbPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "lvds.db"
	}

	dir := filepath.Join(homeDir, ".lvdsctl")
	if err := os.MkdirAll(dir, 0o755); err == nil {
		return filepath.Join(dir, "lvds.db")
	}

	return "lvds.db"
}

func openDB() (*db.DB, error) {
	database, err := db.Open(getDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// resolvePanel finds a profile by name, in file when one is given and in the
// built-in registry otherwise.
func resolvePanel(file, name string) (panel.Profile, error) {
	if file == "" {
		if name == "" {
			return panel.Profile{}, fmt.Errorf("--panel or --config is required")
		}
		return panel.Get(name)
	}

	profiles, err := panel.LoadFile(file)
	if err != nil {
		return panel.Profile{}, err
	}
	return panel.Select(profiles, name)
}

// Helper functions
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func parseInt64(s string) (int64, error) {
	var id int64
	_, err := fmt.Sscanf(s, "%d", &id)
	return id, err
}
