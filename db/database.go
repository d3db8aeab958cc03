package db

import (
	"database/sql"

	"github.com/lifegoals/quest-api/utils"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

func InitDB(dbPath string) (*DB, error) {
	utils.LogStartup("Initializing database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		utils.LogError("Failed to open database: %v", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		utils.LogError("Failed to ping database: %v", err)
		return nil, err
	}

	utils.LogStartup("Database connection established")

	if err := createTables(db); err != nil {
		utils.LogError("Failed to create tables: %v", err)
		return nil, err
	}

	utils.LogStartup("Database tables initialized successfully")
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Archived outcomes of completed assessments
		`CREATE TABLE IF NOT EXISTS game_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_token TEXT NOT NULL,
			score INTEGER NOT NULL,
			lives_left INTEGER NOT NULL,
			goals TEXT NOT NULL,     -- JSON array of selected goals
			responses TEXT NOT NULL, -- JSON array of responses
			completed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Audit trail of every LMS submission attempt
		`CREATE TABLE IF NOT EXISTS lead_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_token TEXT NOT NULL,
			lead_name TEXT NOT NULL,
			channel TEXT NOT NULL CHECK (channel IN ('lead_form', 'booking')),
			payload TEXT NOT NULL, -- JSON payload as sent
			status TEXT NOT NULL CHECK (status IN ('queued', 'delivered', 'failed')),
			attempted_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Call-slot booking requests
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_token TEXT NOT NULL,
			name TEXT NOT NULL,
			mobile TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			preferred_date TEXT NOT NULL,
			preferred_time TEXT NOT NULL,
			score INTEGER NOT NULL,
			goals TEXT NOT NULL, -- JSON array of goal names
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Visitor settings that survive game restarts
		`CREATE TABLE IF NOT EXISTS preferences (
			visitor_id TEXT PRIMARY KEY,
			theme_mode TEXT NOT NULL DEFAULT 'system' CHECK (theme_mode IN ('light', 'dark', 'system')),
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_game_results_token ON game_results(session_token)`,
		`CREATE INDEX IF NOT EXISTS idx_lead_log_token ON lead_log(session_token)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}
