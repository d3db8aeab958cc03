package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lifegoals/quest-api/catalog"
	"github.com/lifegoals/quest-api/game"
	"github.com/lifegoals/quest-api/models"
	"github.com/lifegoals/quest-api/utils"
)

type SessionHandlers struct {
	opts Options
}

func NewSessionHandlers(opts Options) *SessionHandlers {
	return &SessionHandlers{opts: opts}
}

// HandleSessions creates new sessions.
func (sh *SessionHandlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("%s /sessions", r.Method)
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session := sh.opts.Store.CreateSession()
	utils.LogHTTP("Created session %.8s", session.Token())
	writeJSON(w, http.StatusCreated, session.Snapshot())
}

// HandleSessionByToken routes /sessions/{token}[/action...].
func (sh *SessionHandlers) HandleSessionByToken(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.SplitN(path, "/", 2)
	token := parts[0]
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	utils.LogHTTP("%s /sessions/%.8s/%s", r.Method, token, action)

	session, exists := sh.opts.Store.GetSession(token)
	if !exists {
		http.Error(w, "Unknown or expired session", http.StatusNotFound)
		return
	}

	switch action {
	case "":
		sh.getSession(w, r, session)
	case "start":
		sh.withPost(w, r, session, session.StartGame)
	case "goals":
		sh.selectGoals(w, r, session)
	case "quest":
		sh.withPost(w, r, session, session.StartQuest)
	case "answer":
		sh.answer(w, r, session)
	case "results":
		sh.archivedResults(w, r, session)
	case "call":
		sh.callNow(w, r, session)
	case "book":
		sh.withPost(w, r, session, session.BookSlot)
	case "expert":
		sh.withPost(w, r, session, session.TalkToExpert)
	case "booking":
		sh.submitBooking(w, r, session)
	case "booking/back":
		sh.withPost(w, r, session, session.BackToResults)
	case "lead":
		sh.submitLead(w, r, session)
	case "lead/skip":
		sh.withPost(w, r, session, session.SkipLead)
	case "restart":
		sh.restart(w, r, session)
	default:
		http.Error(w, "Unknown session action", http.StatusNotFound)
	}
}

func (sh *SessionHandlers) getSession(w http.ResponseWriter, r *http.Request, session *game.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// withPost runs a no-argument transition and replies with the new state.
func (sh *SessionHandlers) withPost(w http.ResponseWriter, r *http.Request, session *game.Session, fn func() error) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := fn(); err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (sh *SessionHandlers) selectGoals(w http.ResponseWriter, r *http.Request, session *game.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.SelectGoalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	goals := make([]models.Goal, 0, len(req.GoalIDs))
	for _, id := range req.GoalIDs {
		goal, ok := catalog.GoalByID(id)
		if !ok {
			http.Error(w, "Unknown goal ID", http.StatusBadRequest)
			return
		}
		goals = append(goals, goal)
	}

	if err := session.SelectGoals(goals); err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (sh *SessionHandlers) answer(w http.ResponseWriter, r *http.Request, session *game.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	err := session.AnswerAt(req.GoalIndex, req.QuestionIndex, req.Answer)
	if errors.Is(err, game.ErrStaleAnswer) {
		// The question already advanced (timeout or duplicate input won the
		// race); tell the client to refresh rather than double-record.
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error": "question already advanced",
			"state": session.Snapshot(),
		})
		return
	}
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// archivedResults lists every archived run for this session, newest first.
func (sh *SessionHandlers) archivedResults(w http.ResponseWriter, r *http.Request, session *game.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	results, err := sh.opts.DB.GetResultsByToken(session.Token())
	if err != nil {
		http.Error(w, "Failed to load results", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []models.GameResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// callNow exposes the support tel: link. The game state does not change.
func (sh *SessionHandlers) callNow(w http.ResponseWriter, r *http.Request, session *game.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if session.Snapshot().Screen != models.ScreenScoreResults {
		writeTransitionError(w, game.ErrWrongScreen)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"tel": "tel:" + sh.opts.SupportPhone,
	})
}

func (sh *SessionHandlers) restart(w http.ResponseWriter, r *http.Request, session *game.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session.Restart()
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrWrongScreen):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, game.ErrGoalCount), errors.Is(err, game.ErrDuplicateGoal):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, game.ErrSubmitInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		utils.LogError("Unexpected transition error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
