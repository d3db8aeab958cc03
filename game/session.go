package game

import (
	"errors"
	"sync"
	"time"

	"github.com/lifegoals/quest-api/models"
	"github.com/lifegoals/quest-api/utils"
)

var (
	ErrWrongScreen    = errors.New("action not valid on current screen")
	ErrGoalCount      = errors.New("exactly 3 goals must be selected")
	ErrDuplicateGoal  = errors.New("selected goals must be distinct")
	ErrStaleAnswer    = errors.New("answer arrived for a question that already advanced")
	ErrSubmitInFlight = errors.New("a lead submission is already in progress")
)

// Config controls the game mechanics of a session.
type Config struct {
	QuestionTimeout time.Duration // per-question deadline; 0 disables
	SessionTimeout  time.Duration // whole-assessment deadline; 0 disables
	LivesEnabled    bool
}

// DefaultConfig matches the production game: 30s per question, 5 minutes
// per assessment, lives mechanic on.
func DefaultConfig() Config {
	return Config{
		QuestionTimeout: 30 * time.Second,
		SessionTimeout:  300 * time.Second,
		LivesEnabled:    true,
	}
}

// Session is one visitor's run through the game flow. All state is guarded
// by mu; timers re-enter through the same lock and are generation-checked
// so a stale callback is a no-op.
type Session struct {
	mu sync.Mutex

	token     string
	createdAt time.Time

	screen        models.Screen
	selectedGoals []models.Goal
	goalIndex     int
	questionIndex int
	responses     []models.Response
	score         int
	lives         int
	leadName      string
	gameOver      bool
	submitting    bool

	cfg      Config
	notifier Notifier
	recorder Recorder

	questionTimer    *time.Timer
	sessionTimer     *time.Timer
	questionDeadline time.Time
	sessionDeadline  time.Time
	questionGen      int // bumped whenever the current question changes
	sessionEpoch     int // bumped on every reset
}

// NewSession creates a session on the welcome screen.
func NewSession(token string, cfg Config, notifier Notifier, recorder Recorder) *Session {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Session{
		token:     token,
		createdAt: time.Now(),
		screen:    models.ScreenWelcome,
		lives:     models.StartingLives,
		cfg:       cfg,
		notifier:  notifier,
		recorder:  recorder,
	}
}

// Token returns the session's identifier.
func (s *Session) Token() string {
	return s.token
}

// StartGame begins a fresh run: progress is cleared and the visitor moves
// to goal selection.
func (s *Session) StartGame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen != models.ScreenWelcome {
		return ErrWrongScreen
	}
	s.resetProgressLocked()
	s.screen = models.ScreenGoalSelection
	utils.LogGame("Session %s: game started", shortToken(s.token))
	return nil
}

// SelectGoals stores the visitor's three chosen goals and moves to the
// instructions screen. Anything other than exactly three distinct goals
// is rejected.
func (s *Session) SelectGoals(goals []models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen != models.ScreenGoalSelection {
		return ErrWrongScreen
	}
	if len(goals) != models.GoalsPerSession {
		return ErrGoalCount
	}
	seen := make(map[int]bool, len(goals))
	for _, g := range goals {
		if seen[g.ID] {
			return ErrDuplicateGoal
		}
		seen[g.ID] = true
	}

	s.selectedGoals = append([]models.Goal(nil), goals...)
	s.goalIndex = 0
	s.questionIndex = 0
	s.screen = models.ScreenInstructions
	utils.LogGame("Session %s: goals selected (%d, %d, %d)",
		shortToken(s.token), goals[0].ID, goals[1].ID, goals[2].ID)
	return nil
}

// StartQuest begins the timed assessment.
func (s *Session) StartQuest() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen != models.ScreenInstructions {
		return ErrWrongScreen
	}
	s.goalIndex = 0
	s.questionIndex = 0
	s.screen = models.ScreenAssessment
	s.startSessionTimerLocked()
	s.startQuestionTimerLocked()
	utils.LogGame("Session %s: assessment started", shortToken(s.token))
	return nil
}

// Answer records a yes/no answer for the current question and advances the
// game. The per-question timeout calls this with isYes=false.
func (s *Session) Answer(isYes bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answerLocked(isYes)
}

// AnswerAt records an answer only if the given position still matches the
// current question. A mismatch means the question already advanced (a
// timeout or a duplicate submit won the race) and the answer is dropped.
func (s *Session) AnswerAt(goalIdx, questionIdx int, isYes bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen != models.ScreenAssessment {
		return ErrWrongScreen
	}
	if goalIdx != s.goalIndex || questionIdx != s.questionIndex {
		return ErrStaleAnswer
	}
	return s.answerLocked(isYes)
}

func (s *Session) answerLocked(isYes bool) error {
	if s.screen != models.ScreenAssessment {
		return ErrWrongScreen
	}
	if len(s.selectedGoals) != models.GoalsPerSession {
		return ErrGoalCount
	}

	goal := s.selectedGoals[s.goalIndex]
	s.responses = append(s.responses, models.Response{
		GoalID:        goal.ID,
		GoalName:      goal.Name,
		QuestionIndex: s.questionIndex,
		Answer:        isYes,
	})

	if isYes {
		s.score += models.AwardPerCorrect
		s.notifier.Notify(s.token, CueCorrect)
	} else {
		s.notifier.Notify(s.token, CueIncorrect)
		if s.cfg.LivesEnabled {
			s.lives--
			if s.lives <= 0 {
				s.gameOver = true
				utils.LogGame("Session %s: lives exhausted", shortToken(s.token))
				s.endAssessmentLocked()
				return nil
			}
		}
	}

	if s.questionIndex < models.QuestionsPerGoal-1 {
		s.questionIndex++
	} else if s.goalIndex < len(s.selectedGoals)-1 {
		s.goalIndex++
		s.questionIndex = 0
	} else {
		s.endAssessmentLocked()
		return nil
	}

	s.questionGen++
	s.startQuestionTimerLocked()
	return nil
}

// endAssessmentLocked stops both timers, archives the result and moves to
// the score screen.
func (s *Session) endAssessmentLocked() {
	s.stopTimersLocked()
	s.screen = models.ScreenScoreResults
	s.notifier.Notify(s.token, CueComplete)
	utils.LogGame("Session %s: assessment ended, score=%d responses=%d",
		shortToken(s.token), s.score, len(s.responses))
	s.recorder.RecordResult(s.snapshotLocked())
}

// BookSlot moves from the score screen to the booking form.
func (s *Session) BookSlot() error {
	return s.transition(models.ScreenScoreResults, models.ScreenBooking)
}

// TalkToExpert moves from the score screen to the lead-capture form.
func (s *Session) TalkToExpert() error {
	return s.transition(models.ScreenScoreResults, models.ScreenLeadForm)
}

// BackToResults returns from the booking form to the score screen.
func (s *Session) BackToResults() error {
	return s.transition(models.ScreenBooking, models.ScreenScoreResults)
}

func (s *Session) transition(from, to models.Screen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != from {
		return ErrWrongScreen
	}
	s.screen = to
	return nil
}

// BeginLeadSubmit marks a lead submission as in flight. It fails if one is
// already being processed so a double-click cannot post twice.
func (s *Session) BeginLeadSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen != models.ScreenLeadForm {
		return ErrWrongScreen
	}
	if s.submitting {
		return ErrSubmitInFlight
	}
	s.submitting = true
	return nil
}

// FinishLeadSubmit settles an in-flight submission. On success the session
// moves to the thank-you screen; on failure it stays on the lead form so
// the visitor can retry with their input intact.
func (s *Session) FinishLeadSubmit(success bool, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	if !success || s.screen != models.ScreenLeadForm {
		return
	}
	s.leadName = name
	s.screen = models.ScreenThankYou
	s.notifier.Notify(s.token, CueSuccess)
}

// BeginBookingSubmit marks a booking submission as in flight. It fails if
// one is already being processed so a double-click cannot book twice.
func (s *Session) BeginBookingSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen != models.ScreenBooking {
		return ErrWrongScreen
	}
	if s.submitting {
		return ErrSubmitInFlight
	}
	s.submitting = true
	return nil
}

// AbortBookingSubmit releases the latch after a failed save so the
// visitor can retry.
func (s *Session) AbortBookingSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
}

// CompleteBooking moves from the booking form to the thank-you screen.
func (s *Session) CompleteBooking(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	if s.screen != models.ScreenBooking {
		return ErrWrongScreen
	}
	s.leadName = name
	s.screen = models.ScreenThankYou
	s.notifier.Notify(s.token, CueSuccess)
	return nil
}

// SkipLead abandons the lead form and resets the whole session.
func (s *Session) SkipLead() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen != models.ScreenLeadForm {
		return ErrWrongScreen
	}
	s.resetLocked()
	return nil
}

// Restart resets the session to the welcome screen from any point. Pending
// timers are cancelled and any callback already in flight becomes a no-op.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	utils.LogGame("Session %s: restarted", shortToken(s.token))
}

func (s *Session) resetLocked() {
	s.resetProgressLocked()
	s.screen = models.ScreenWelcome
	s.leadName = ""
	s.submitting = false
}

func (s *Session) resetProgressLocked() {
	s.stopTimersLocked()
	s.sessionEpoch++
	s.selectedGoals = nil
	s.goalIndex = 0
	s.questionIndex = 0
	s.responses = nil
	s.score = 0
	s.lives = models.StartingLives
	s.gameOver = false
}

// Snapshot returns a copy of the current state for rendering.
func (s *Session) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *models.Snapshot {
	snap := &models.Snapshot{
		Token:                s.token,
		Screen:               s.screen,
		SelectedGoals:        append([]models.Goal(nil), s.selectedGoals...),
		CurrentGoalIndex:     s.goalIndex,
		CurrentQuestionIndex: s.questionIndex,
		Responses:            append([]models.Response(nil), s.responses...),
		Score:                s.score,
		Lives:                s.lives,
		LeadName:             s.leadName,
		GameOver:             s.gameOver,
	}
	now := time.Now()
	if !s.questionDeadline.IsZero() && s.questionDeadline.After(now) {
		snap.QuestionSecondsLeft = int(time.Until(s.questionDeadline).Seconds() + 0.5)
	}
	if !s.sessionDeadline.IsZero() && s.sessionDeadline.After(now) {
		snap.SessionSecondsLeft = int(time.Until(s.sessionDeadline).Seconds() + 0.5)
	}
	return snap
}

// Timer plumbing. Each callback captures the generation current at arm
// time; by compare on fire, a timer that was superseded does nothing even
// if it slipped past Stop.

func (s *Session) startQuestionTimerLocked() {
	if s.questionTimer != nil {
		s.questionTimer.Stop()
		s.questionTimer = nil
	}
	s.questionDeadline = time.Time{}
	if s.cfg.QuestionTimeout <= 0 {
		return
	}
	gen := s.questionGen
	epoch := s.sessionEpoch
	s.questionDeadline = time.Now().Add(s.cfg.QuestionTimeout)
	s.questionTimer = time.AfterFunc(s.cfg.QuestionTimeout, func() {
		s.onQuestionTimeout(gen, epoch)
	})
}

func (s *Session) startSessionTimerLocked() {
	if s.sessionTimer != nil {
		s.sessionTimer.Stop()
		s.sessionTimer = nil
	}
	s.sessionDeadline = time.Time{}
	if s.cfg.SessionTimeout <= 0 {
		return
	}
	epoch := s.sessionEpoch
	s.sessionDeadline = time.Now().Add(s.cfg.SessionTimeout)
	s.sessionTimer = time.AfterFunc(s.cfg.SessionTimeout, func() {
		s.onSessionTimeout(epoch)
	})
}

func (s *Session) stopTimersLocked() {
	if s.questionTimer != nil {
		s.questionTimer.Stop()
		s.questionTimer = nil
	}
	if s.sessionTimer != nil {
		s.sessionTimer.Stop()
		s.sessionTimer = nil
	}
	s.questionDeadline = time.Time{}
	s.sessionDeadline = time.Time{}
}

// onQuestionTimeout auto-scores the question as "No", exactly as if the
// visitor had answered.
func (s *Session) onQuestionTimeout(gen, epoch int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionEpoch != epoch || s.questionGen != gen || s.screen != models.ScreenAssessment {
		return
	}
	utils.LogGame("Session %s: question timed out (goal %d, question %d)",
		shortToken(s.token), s.goalIndex, s.questionIndex)
	_ = s.answerLocked(false)
}

// onSessionTimeout force-ends the assessment regardless of progress.
func (s *Session) onSessionTimeout(epoch int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionEpoch != epoch || s.screen != models.ScreenAssessment {
		return
	}
	utils.LogGame("Session %s: session time budget exhausted", shortToken(s.token))
	s.endAssessmentLocked()
}

func shortToken(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}
