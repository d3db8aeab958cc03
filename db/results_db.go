package db

import (
	"encoding/json"
	"time"

	"github.com/lifegoals/quest-api/models"
	"github.com/lifegoals/quest-api/utils"
)

// SaveResult archives the outcome of a completed assessment.
func (db *DB) SaveResult(snap *models.Snapshot) (*models.GameResult, error) {
	utils.LogDB("Archiving result for session %.8s: score=%d", snap.Token, snap.Score)
	start := time.Now()

	goalsJSON, err := json.Marshal(snap.SelectedGoals)
	if err != nil {
		return nil, err
	}
	responsesJSON, err := json.Marshal(snap.Responses)
	if err != nil {
		return nil, err
	}

	result, err := db.Exec(`
        INSERT INTO game_results (session_token, score, lives_left, goals, responses)
        VALUES (?, ?, ?, ?, ?)
    `, snap.Token, snap.Score, snap.Lives, string(goalsJSON), string(responsesJSON))

	if err != nil {
		utils.LogError("SaveResult failed: %v (%v)", err, time.Since(start))
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		utils.LogError("Failed to get game_results LastInsertId: %v", err)
		return nil, err
	}

	utils.LogDB("Result archived with ID %d in %v", id, time.Since(start))
	return db.GetResultByID(int(id))
}

// GetResultByID loads one archived result.
func (db *DB) GetResultByID(id int) (*models.GameResult, error) {
	utils.LogDB("Executing query: GetResultByID(%d)", id)

	var r models.GameResult
	var goalsJSON, responsesJSON string

	err := db.QueryRow(`
        SELECT id, session_token, score, lives_left, goals, responses, completed_at
        FROM game_results WHERE id = ?
    `, id).Scan(&r.ID, &r.Token, &r.Score, &r.LivesLeft, &goalsJSON, &responsesJSON, &r.CompletedAt)

	if err != nil {
		utils.LogError("GetResultByID(%d) failed: %v", id, err)
		return nil, err
	}

	if err := json.Unmarshal([]byte(goalsJSON), &r.Goals); err != nil {
		utils.LogError("Failed to parse goals for result %d: %v", id, err)
		return nil, err
	}
	if err := json.Unmarshal([]byte(responsesJSON), &r.Responses); err != nil {
		utils.LogError("Failed to parse responses for result %d: %v", id, err)
		return nil, err
	}

	return &r, nil
}

// GetResultsByToken returns every archived run for one session token,
// newest first.
func (db *DB) GetResultsByToken(token string) ([]models.GameResult, error) {
	rows, err := db.Query(`
        SELECT id, session_token, score, lives_left, goals, responses, completed_at
        FROM game_results WHERE session_token = ? ORDER BY completed_at DESC
    `, token)
	if err != nil {
		utils.LogError("GetResultsByToken failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	var results []models.GameResult
	for rows.Next() {
		var r models.GameResult
		var goalsJSON, responsesJSON string
		if err := rows.Scan(&r.ID, &r.Token, &r.Score, &r.LivesLeft, &goalsJSON, &responsesJSON, &r.CompletedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(goalsJSON), &r.Goals); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(responsesJSON), &r.Responses); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
