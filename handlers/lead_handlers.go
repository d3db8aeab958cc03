package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/lifegoals/quest-api/db"
	"github.com/lifegoals/quest-api/game"
	"github.com/lifegoals/quest-api/leads"
	"github.com/lifegoals/quest-api/models"
	"github.com/lifegoals/quest-api/utils"
)

var bookingTimeSlots = []string{
	"09:00 AM - 11:00 AM",
	"11:00 AM - 01:00 PM",
	"02:00 PM - 04:00 PM",
	"04:00 PM - 06:00 PM",
	"06:00 PM - 08:00 PM",
}

// submitLead handles the lead-capture form. The LMS call is synchronous:
// a delivery failure keeps the visitor on the form with their input intact
// so they can retry.
func (sh *SessionHandlers) submitLead(w http.ResponseWriter, r *http.Request, session *game.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.LeadFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if fieldErrors := validateLeadForm(&req); len(fieldErrors) > 0 {
		writeFieldErrors(w, fieldErrors)
		return
	}

	if err := session.BeginLeadSubmit(); err != nil {
		writeTransitionError(w, err)
		return
	}

	snap := session.Snapshot()
	lead := leads.PartialLead{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Mobile:     strings.ReplaceAll(req.Mobile, " ", ""),
		Pincode:    req.Pincode,
		DOB:        req.DOB,
		Gender:     req.Gender,
		Occupation: req.Occupation,
		Education:  req.Education,
		Income:     req.Income,
		GoalName:   goalNameField(snap),
		Summary:    leadSummary(snap),
	}

	payloadJSON, _ := json.Marshal(lead)
	logID, err := sh.opts.DB.LogLeadAttempt(snap.Token, lead.Name, "lead_form", string(payloadJSON), db.LeadStatusQueued)
	if err != nil {
		// The audit row is best-effort; delivery still proceeds.
		logID = 0
	}

	if _, err := sh.opts.LeadClient.Submit(r.Context(), lead); err != nil {
		if logID != 0 {
			sh.opts.DB.UpdateLeadStatus(logID, db.LeadStatusFailed)
		}
		session.FinishLeadSubmit(false, "")
		utils.LogLead("Lead form delivery failed for session %.8s: %v", snap.Token, err)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":     "We couldn't reach our servers. Please try again.",
			"retryable": true,
		})
		return
	}

	if logID != 0 {
		sh.opts.DB.UpdateLeadStatus(logID, db.LeadStatusDelivered)
	}
	session.FinishLeadSubmit(true, lead.Name)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// submitBooking handles the call-slot booking form. Delivery to the LMS is
// queued in the background so the visitor is never blocked on it.
func (sh *SessionHandlers) submitBooking(w http.ResponseWriter, r *http.Request, session *game.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if fieldErrors := validateBooking(&req); len(fieldErrors) > 0 {
		writeFieldErrors(w, fieldErrors)
		return
	}

	if err := session.BeginBookingSubmit(); err != nil {
		writeTransitionError(w, err)
		return
	}

	snap := session.Snapshot()
	goalNames := make([]string, 0, len(snap.SelectedGoals))
	for _, g := range snap.SelectedGoals {
		goalNames = append(goalNames, g.Name)
	}

	booking, err := sh.opts.DB.SaveBooking(snap.Token, req, snap.Score, goalNames)
	if err != nil {
		session.AbortBookingSubmit()
		http.Error(w, "Failed to save booking", http.StatusInternalServerError)
		return
	}

	lead := leads.PartialLead{
		Name:     strings.TrimSpace(req.Name),
		Mobile:   strings.ReplaceAll(req.Mobile, " ", ""),
		Email:    strings.TrimSpace(req.Email),
		GoalName: goalNameField(snap),
		Summary:  fmt.Sprintf("Booking Request: %s %s", req.PreferredDate, req.PreferredTime),
	}

	payloadJSON, _ := json.Marshal(lead)
	logID, err := sh.opts.DB.LogLeadAttempt(snap.Token, lead.Name, "booking", string(payloadJSON), db.LeadStatusQueued)
	if err != nil {
		logID = 0
	}

	sh.deliverBookingLead(r, logID, snap.Token, lead)
	sh.sendBookingConfirmation(booking)

	if err := session.CompleteBooking(lead.Name); err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// deliverBookingLead queues the lead when the job queue is up, and falls
// back to a best-effort inline delivery when it is not. Either way the
// visitor's booking is already saved and their flow proceeds.
func (sh *SessionHandlers) deliverBookingLead(r *http.Request, logID int, token string, lead leads.PartialLead) {
	if sh.opts.JobManager != nil {
		if err := sh.opts.JobManager.QueueLeadDelivery(logID, token, lead); err == nil {
			return
		}
		utils.LogError("Failed to queue booking lead, delivering inline")
	}

	if _, err := sh.opts.LeadClient.Submit(r.Context(), lead); err != nil {
		utils.LogLead("Booking lead delivery failed for session %.8s: %v", token, err)
		if logID != 0 {
			sh.opts.DB.UpdateLeadStatus(logID, db.LeadStatusFailed)
		}
		return
	}
	if logID != 0 {
		sh.opts.DB.UpdateLeadStatus(logID, db.LeadStatusDelivered)
	}
}

func (sh *SessionHandlers) sendBookingConfirmation(booking *models.Booking) {
	if sh.opts.EmailService == nil || booking == nil {
		return
	}
	// Confirmation only goes out when the visitor left an email.
	to := booking.Email
	if to == "" {
		return
	}
	subject, body := sh.opts.EmailService.BuildBookingConfirmation(booking)
	if sh.opts.JobManager != nil {
		if err := sh.opts.JobManager.QueueEmail(to, subject, body, "booking_confirmation"); err == nil {
			return
		}
	}
	if err := sh.opts.EmailService.SendEmail(to, subject, body); err != nil {
		utils.LogError("Failed to send booking confirmation: %v", err)
	}
}

func validateLeadForm(req *models.LeadFormRequest) map[string]string {
	fieldErrors := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		fieldErrors["name"] = "Full Name is required"
	}
	if !utils.IsValidEmail(req.Email) {
		fieldErrors["email"] = "Valid email required"
	}
	if req.Mobile != "" && !utils.IsValidPhone(req.Mobile) {
		fieldErrors["mobile"] = "Valid 10-digit number required"
	}
	return fieldErrors
}

func validateBooking(req *models.BookingRequest) map[string]string {
	fieldErrors := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		fieldErrors["name"] = "Name is required"
	}
	if !utils.IsValidPhone(req.Mobile) {
		fieldErrors["mobile"] = "Valid 10-digit number required"
	}
	if req.Email != "" && !utils.IsValidEmail(req.Email) {
		fieldErrors["email"] = "Valid email required"
	}
	if req.PreferredDate == "" {
		fieldErrors["preferred_date"] = "Please select a date"
	} else if utils.IsPastDate(req.PreferredDate) {
		fieldErrors["preferred_date"] = "Please select a future date"
	}
	if !validTimeSlot(req.PreferredTime) {
		fieldErrors["preferred_time"] = "Please select a time slot"
	}
	return fieldErrors
}

func validTimeSlot(slot string) bool {
	for _, s := range bookingTimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// goalNameField fills the LMS goal_name slot with the first selected goal
// ID, matching what the production form sent.
func goalNameField(snap *models.Snapshot) string {
	if len(snap.SelectedGoals) == 0 {
		return "1"
	}
	return fmt.Sprintf("%d", snap.SelectedGoals[0].ID)
}

func leadSummary(snap *models.Snapshot) string {
	if len(snap.SelectedGoals) == 0 {
		return ""
	}
	names := make([]string, 0, len(snap.SelectedGoals))
	for _, g := range snap.SelectedGoals {
		names = append(names, g.Name)
	}
	return fmt.Sprintf("Preparedness %d%% (score %d/%d) for goals: %s",
		snap.Percentage(), snap.Score, models.TotalPossibleScore, strings.Join(names, ", "))
}
