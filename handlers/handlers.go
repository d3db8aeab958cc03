package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lifegoals/quest-api/db"
	"github.com/lifegoals/quest-api/email"
	"github.com/lifegoals/quest-api/game"
	"github.com/lifegoals/quest-api/jobs"
	"github.com/lifegoals/quest-api/leads"
	"github.com/lifegoals/quest-api/utils"
)

// API wrapper to hold all handlers
type API struct {
	catalogHandlers     *CatalogHandlers
	sessionHandlers     *SessionHandlers
	preferencesHandlers *PreferencesHandlers
}

// Options carries everything the handlers need. JobManager may be nil when
// Redis is not configured; the booking path then delivers leads inline.
type Options struct {
	Store        *game.SessionStore
	DB           *db.DB
	LeadClient   *leads.Client
	JobManager   *jobs.JobManager
	EmailService *email.Service
	SupportPhone string
}

func NewAPI(opts Options) *API {
	return &API{
		catalogHandlers:     NewCatalogHandlers(),
		sessionHandlers:     NewSessionHandlers(opts),
		preferencesHandlers: NewPreferencesHandlers(opts.DB),
	}
}

func NewRouter(opts Options) http.Handler {
	api := NewAPI(opts)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", healthCheck)

	// Content catalog
	mux.HandleFunc("/goals", api.catalogHandlers.HandleGoals)
	mux.HandleFunc("/questions", api.catalogHandlers.HandleQuestions)

	// Game sessions
	mux.HandleFunc("/sessions", api.sessionHandlers.HandleSessions)
	mux.HandleFunc("/sessions/", api.sessionHandlers.HandleSessionByToken)

	// Visitor preferences
	mux.HandleFunc("/preferences/", api.preferencesHandlers.HandlePreferences)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("Health check requested")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeFieldErrors reports per-field validation failures so the form can
// surface them inline.
func writeFieldErrors(w http.ResponseWriter, fieldErrors map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "validation failed",
		"fields": fieldErrors,
	})
}
