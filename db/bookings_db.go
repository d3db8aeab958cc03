package db

import (
	"encoding/json"
	"time"

	"github.com/lifegoals/quest-api/models"
	"github.com/lifegoals/quest-api/utils"
)

// SaveBooking persists a call-slot booking request.
func (db *DB) SaveBooking(token string, req models.BookingRequest, score int, goalNames []string) (*models.Booking, error) {
	utils.LogDB("Saving booking: session %.8s date=%s slot=%s", token, req.PreferredDate, req.PreferredTime)
	start := time.Now()

	goalsJSON, err := json.Marshal(goalNames)
	if err != nil {
		return nil, err
	}

	result, err := db.Exec(`
        INSERT INTO bookings (session_token, name, mobile, email, preferred_date, preferred_time, score, goals)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, token, req.Name, req.Mobile, req.Email, req.PreferredDate, req.PreferredTime, score, string(goalsJSON))

	if err != nil {
		utils.LogError("SaveBooking failed: %v (%v)", err, time.Since(start))
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		utils.LogError("Failed to get bookings LastInsertId: %v", err)
		return nil, err
	}

	utils.LogDB("Booking saved with ID %d in %v", id, time.Since(start))
	return db.GetBookingByID(int(id))
}

// GetBookingByID loads one booking.
func (db *DB) GetBookingByID(id int) (*models.Booking, error) {
	utils.LogDB("Executing query: GetBookingByID(%d)", id)

	var b models.Booking
	var goalsJSON string

	err := db.QueryRow(`
        SELECT id, session_token, name, mobile, email, preferred_date, preferred_time, score, goals, created_at
        FROM bookings WHERE id = ?
    `, id).Scan(&b.ID, &b.SessionToken, &b.Name, &b.Mobile, &b.Email, &b.PreferredDate, &b.PreferredTime, &b.Score, &goalsJSON, &b.CreatedAt)

	if err != nil {
		utils.LogError("GetBookingByID(%d) failed: %v", id, err)
		return nil, err
	}

	if err := json.Unmarshal([]byte(goalsJSON), &b.Goals); err != nil {
		utils.LogError("Failed to parse goals for booking %d: %v", id, err)
		return nil, err
	}

	return &b, nil
}
