package db

import (
	"github.com/lifegoals/quest-api/utils"
)

// Lead log statuses.
const (
	LeadStatusQueued    = "queued"
	LeadStatusDelivered = "delivered"
	LeadStatusFailed    = "failed"
)

// LogLeadAttempt records one LMS submission attempt and returns its row ID.
func (db *DB) LogLeadAttempt(token, leadName, channel, payloadJSON, status string) (int, error) {
	utils.LogDB("Logging lead attempt: session %.8s channel=%s status=%s", token, channel, status)

	result, err := db.Exec(`
        INSERT INTO lead_log (session_token, lead_name, channel, payload, status)
        VALUES (?, ?, ?, ?, ?)
    `, token, leadName, channel, payloadJSON, status)
	if err != nil {
		utils.LogError("LogLeadAttempt failed: %v", err)
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		utils.LogError("Failed to get lead_log LastInsertId: %v", err)
		return 0, err
	}
	return int(id), nil
}

// UpdateLeadStatus settles a previously logged attempt.
func (db *DB) UpdateLeadStatus(id int, status string) error {
	utils.LogDB("Updating lead attempt %d -> %s", id, status)

	_, err := db.Exec(`UPDATE lead_log SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		utils.LogError("UpdateLeadStatus(%d) failed: %v", id, err)
	}
	return err
}
