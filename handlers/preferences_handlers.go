package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lifegoals/quest-api/db"
	"github.com/lifegoals/quest-api/models"
	"github.com/lifegoals/quest-api/utils"
)

type PreferencesHandlers struct {
	db *db.DB
}

func NewPreferencesHandlers(database *db.DB) *PreferencesHandlers {
	return &PreferencesHandlers{db: database}
}

// HandlePreferences routes /preferences/{visitor}. Theme preference lives
// outside game state and is never reset by a game restart.
func (ph *PreferencesHandlers) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	visitorID := strings.TrimPrefix(r.URL.Path, "/preferences/")
	if visitorID == "" || strings.Contains(visitorID, "/") {
		http.Error(w, "Invalid visitor ID", http.StatusBadRequest)
		return
	}

	utils.LogHTTP("%s /preferences/%s", r.Method, visitorID)

	switch r.Method {
	case http.MethodGet:
		ph.getPreferences(w, r, visitorID)
	case http.MethodPut:
		ph.updatePreferences(w, r, visitorID)
	default:
		utils.LogHTTP("Method %s not allowed for /preferences", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (ph *PreferencesHandlers) getPreferences(w http.ResponseWriter, r *http.Request, visitorID string) {
	preferences, err := ph.db.GetPreferences(visitorID)
	if err != nil {
		utils.LogError("Failed to get preferences for visitor %s: %v", visitorID, err)
		http.Error(w, "Failed to get preferences", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, preferences)
}

func (ph *PreferencesHandlers) updatePreferences(w http.ResponseWriter, r *http.Request, visitorID string) {
	var req models.PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.LogHTTP("Invalid JSON in preferences update request: %v", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	switch req.ThemeMode {
	case "light", "dark", "system":
	default:
		http.Error(w, "theme_mode must be light, dark or system", http.StatusBadRequest)
		return
	}

	preferences, err := ph.db.UpdatePreferences(visitorID, req)
	if err != nil {
		utils.LogError("Failed to update preferences for visitor %s: %v", visitorID, err)
		http.Error(w, "Failed to update preferences", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, preferences)
}
