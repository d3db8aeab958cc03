package db

import (
	"database/sql"

	"github.com/lifegoals/quest-api/models"
	"github.com/lifegoals/quest-api/utils"
)

// GetPreferences returns the visitor's settings, defaulting to the system
// theme when none are stored yet.
func (db *DB) GetPreferences(visitorID string) (*models.Preferences, error) {
	utils.LogDB("Getting preferences for visitor %s", visitorID)

	var p models.Preferences
	err := db.QueryRow(`
        SELECT visitor_id, theme_mode, updated_at
        FROM preferences WHERE visitor_id = ?
    `, visitorID).Scan(&p.VisitorID, &p.ThemeMode, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return &models.Preferences{VisitorID: visitorID, ThemeMode: "system"}, nil
	}
	if err != nil {
		utils.LogError("GetPreferences(%s) failed: %v", visitorID, err)
		return nil, err
	}
	return &p, nil
}

// UpdatePreferences upserts the visitor's settings. Game restarts never
// touch this table.
func (db *DB) UpdatePreferences(visitorID string, req models.PreferencesRequest) (*models.Preferences, error) {
	utils.LogDB("Updating preferences for visitor %s: theme=%s", visitorID, req.ThemeMode)

	_, err := db.Exec(`
        INSERT INTO preferences (visitor_id, theme_mode, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(visitor_id) DO UPDATE SET theme_mode = excluded.theme_mode, updated_at = CURRENT_TIMESTAMP
    `, visitorID, req.ThemeMode)

	if err != nil {
		utils.LogError("UpdatePreferences(%s) failed: %v", visitorID, err)
		return nil, err
	}

	return db.GetPreferences(visitorID)
}
