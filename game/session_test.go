package game

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/lifegoals/quest-api/catalog"
	"github.com/lifegoals/quest-api/models"
)

// untimed returns a config with both timers off so tests drive every
// transition explicitly.
func untimed(lives bool) Config {
	return Config{LivesEnabled: lives}
}

func pickGoals(t *testing.T, ids ...int) []models.Goal {
	t.Helper()
	goals := make([]models.Goal, 0, len(ids))
	for _, id := range ids {
		g, ok := catalog.GoalByID(id)
		if !ok {
			t.Fatalf("goal %d not in catalog", id)
		}
		goals = append(goals, g)
	}
	return goals
}

func startAssessment(t *testing.T, s *Session, ids ...int) {
	t.Helper()
	if err := s.StartGame(); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := s.SelectGoals(pickGoals(t, ids...)); err != nil {
		t.Fatalf("select goals: %v", err)
	}
	if err := s.StartQuest(); err != nil {
		t.Fatalf("start quest: %v", err)
	}
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []*models.Snapshot
}

func (r *recordingSink) RecordResult(snap *models.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestStartGameMovesToGoalSelection(t *testing.T) {
	s := NewSession("tok", untimed(true), nil, nil)

	if err := s.StartGame(); err != nil {
		t.Fatalf("start game: %v", err)
	}
	snap := s.Snapshot()
	if snap.Screen != models.ScreenGoalSelection {
		t.Fatalf("expected goal_selection, got %s", snap.Screen)
	}
	if len(snap.SelectedGoals) != 0 || len(snap.Responses) != 0 || snap.Score != 0 {
		t.Fatalf("expected clean progress after start")
	}

	// startGame is only valid from the welcome screen
	if err := s.StartGame(); !errors.Is(err, ErrWrongScreen) {
		t.Fatalf("expected ErrWrongScreen, got %v", err)
	}
}

func TestSelectGoalsValidation(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		err  error
	}{
		{name: "two goals", ids: []int{1, 2}, err: ErrGoalCount},
		{name: "four goals", ids: []int{1, 2, 3, 4}, err: ErrGoalCount},
		{name: "duplicate goals", ids: []int{1, 1, 2}, err: ErrDuplicateGoal},
		{name: "exactly three", ids: []int{3, 7, 9}, err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("tok", untimed(true), nil, nil)
			if err := s.StartGame(); err != nil {
				t.Fatalf("start game: %v", err)
			}
			err := s.SelectGoals(pickGoals(t, tt.ids...))
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if tt.err != nil {
				if snap := s.Snapshot(); snap.Screen != models.ScreenGoalSelection {
					t.Fatalf("rejected selection must not advance, got %s", snap.Screen)
				}
			}
		})
	}
}

func TestSelectGoalsKeepsCallOrder(t *testing.T) {
	s := NewSession("tok", untimed(true), nil, nil)
	if err := s.StartGame(); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := s.SelectGoals(pickGoals(t, 9, 2, 5)); err != nil {
		t.Fatalf("select goals: %v", err)
	}

	snap := s.Snapshot()
	if snap.Screen != models.ScreenInstructions {
		t.Fatalf("expected instructions, got %s", snap.Screen)
	}
	want := []int{9, 2, 5}
	for i, g := range snap.SelectedGoals {
		if g.ID != want[i] {
			t.Fatalf("goal %d: expected id %d, got %d", i, want[i], g.ID)
		}
	}
}

func TestProgressionCompleteness(t *testing.T) {
	s := NewSession("tok", untimed(false), nil, nil)
	startAssessment(t, s, 1, 2, 3)

	answers := []bool{true, false, true, false, true, false, true, false, true}
	yes := 0
	for i, a := range answers {
		snap := s.Snapshot()
		wantResponses := i
		if len(snap.Responses) != wantResponses {
			t.Fatalf("before answer %d: expected %d responses, got %d", i, wantResponses, len(snap.Responses))
		}
		if got := snap.CurrentGoalIndex*models.QuestionsPerGoal + snap.CurrentQuestionIndex; got != i {
			t.Fatalf("before answer %d: position invariant broken (got %d)", i, got)
		}
		if err := s.Answer(a); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if a {
			yes++
		}
	}

	snap := s.Snapshot()
	if snap.Screen != models.ScreenScoreResults {
		t.Fatalf("expected score_results, got %s", snap.Screen)
	}
	if len(snap.Responses) != 9 {
		t.Fatalf("expected 9 responses, got %d", len(snap.Responses))
	}
	if snap.Score != yes*models.AwardPerCorrect {
		t.Fatalf("expected score %d, got %d", yes*models.AwardPerCorrect, snap.Score)
	}
}

func TestScoreMonotonicallyNonDecreasing(t *testing.T) {
	s := NewSession("tok", untimed(false), nil, nil)
	startAssessment(t, s, 1, 2, 3)

	last := 0
	for i := 0; i < 9; i++ {
		if err := s.Answer(i%2 == 0); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if score := s.Snapshot().Score; score < last {
			t.Fatalf("score decreased from %d to %d", last, score)
		} else {
			last = score
		}
	}
}

func TestTimeoutEquivalentToNo(t *testing.T) {
	cfg := Config{QuestionTimeout: 30 * time.Millisecond, LivesEnabled: true}

	timed := NewSession("timed", cfg, nil, nil)
	startAssessment(t, timed, 1, 2, 3)

	// Wait until at least one deadline has fired, then take one snapshot.
	// The timer re-arms per question, so the snapshot may hold several
	// timeouts; the manual session replays exactly that many "No" answers.
	deadline := time.Now().Add(2 * time.Second)
	var ts *models.Snapshot
	for {
		ts = timed.Snapshot()
		if len(ts.Responses) > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(ts.Responses) == 0 {
		t.Fatalf("question timeout never fired")
	}

	manual := NewSession("manual", untimed(true), nil, nil)
	startAssessment(t, manual, 1, 2, 3)
	for range ts.Responses {
		if err := manual.Answer(false); err != nil {
			t.Fatalf("manual answer: %v", err)
		}
	}

	ms := manual.Snapshot()
	if !reflect.DeepEqual(ts.Responses, ms.Responses) {
		t.Fatalf("timeout responses %+v differ from manual no %+v", ts.Responses, ms.Responses)
	}
	if ts.Lives != ms.Lives {
		t.Fatalf("timeout lives %d differ from manual no lives %d", ts.Lives, ms.Lives)
	}
	if ts.Screen != ms.Screen || ts.Score != ms.Score {
		t.Fatalf("timeout state diverged: %s/%d vs %s/%d", ts.Screen, ts.Score, ms.Screen, ms.Score)
	}
}

func TestLivesTermination(t *testing.T) {
	sink := &recordingSink{}
	s := NewSession("tok", untimed(true), nil, sink)
	startAssessment(t, s, 1, 2, 3)

	// Spread the three misses across goals.
	moves := []bool{true, false, true, false, true, false}
	for i, a := range moves {
		if err := s.Answer(a); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}

	snap := s.Snapshot()
	if snap.Screen != models.ScreenScoreResults {
		t.Fatalf("expected score_results after third miss, got %s", snap.Screen)
	}
	if snap.Lives != 0 {
		t.Fatalf("expected 0 lives, got %d", snap.Lives)
	}
	if !snap.GameOver {
		t.Fatalf("expected game over flag")
	}
	if len(snap.Responses) != len(moves) {
		t.Fatalf("expected %d responses, got %d", len(moves), len(snap.Responses))
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 archived result, got %d", sink.count())
	}

	// Further answers are rejected.
	if err := s.Answer(true); !errors.Is(err, ErrWrongScreen) {
		t.Fatalf("expected ErrWrongScreen after game over, got %v", err)
	}
}

func TestAnswerPositionGuard(t *testing.T) {
	s := NewSession("tok", untimed(false), nil, nil)
	startAssessment(t, s, 1, 2, 3)

	if err := s.AnswerAt(0, 0, true); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	// A duplicate submit for the same question must be a no-op.
	if err := s.AnswerAt(0, 0, true); !errors.Is(err, ErrStaleAnswer) {
		t.Fatalf("expected ErrStaleAnswer, got %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(snap.Responses))
	}
	if snap.CurrentQuestionIndex != 1 {
		t.Fatalf("expected question index 1, got %d", snap.CurrentQuestionIndex)
	}
	if snap.Score != models.AwardPerCorrect {
		t.Fatalf("expected single award, got %d", snap.Score)
	}
}

func TestRestartResetsEverything(t *testing.T) {
	s := NewSession("tok", untimed(true), nil, nil)
	startAssessment(t, s, 4, 5, 6)
	for i := 0; i < 4; i++ {
		if err := s.Answer(true); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}

	s.Restart()

	snap := s.Snapshot()
	fresh := NewSession("tok", untimed(true), nil, nil).Snapshot()
	if snap.Screen != fresh.Screen ||
		len(snap.SelectedGoals) != 0 ||
		len(snap.Responses) != 0 ||
		snap.Score != 0 ||
		snap.Lives != models.StartingLives ||
		snap.GameOver ||
		snap.LeadName != "" {
		t.Fatalf("restart did not restore initial state: %+v", snap)
	}
	if snap.QuestionSecondsLeft != 0 || snap.SessionSecondsLeft != 0 {
		t.Fatalf("restart left timers armed: %+v", snap)
	}
}

func TestStaleTimerIsInertAfterRestart(t *testing.T) {
	cfg := Config{
		QuestionTimeout: 30 * time.Millisecond,
		SessionTimeout:  50 * time.Millisecond,
		LivesEnabled:    true,
	}
	s := NewSession("tok", cfg, nil, nil)
	startAssessment(t, s, 1, 2, 3)

	s.Restart()

	// Sleep past both deadlines; neither callback may mutate the session.
	time.Sleep(120 * time.Millisecond)

	snap := s.Snapshot()
	if snap.Screen != models.ScreenWelcome {
		t.Fatalf("stale timer moved screen to %s", snap.Screen)
	}
	if len(snap.Responses) != 0 || snap.Lives != models.StartingLives {
		t.Fatalf("stale timer mutated state: %+v", snap)
	}
}

func TestSessionTimeoutForcesResults(t *testing.T) {
	sink := &recordingSink{}
	cfg := Config{SessionTimeout: 40 * time.Millisecond, LivesEnabled: true}
	s := NewSession("tok", cfg, nil, sink)
	startAssessment(t, s, 1, 2, 3)

	if err := s.Answer(true); err != nil {
		t.Fatalf("answer: %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	snap := s.Snapshot()
	if snap.Screen != models.ScreenScoreResults {
		t.Fatalf("expected score_results after session timeout, got %s", snap.Screen)
	}
	if len(snap.Responses) != 1 {
		t.Fatalf("session timeout must not record extra responses, got %d", len(snap.Responses))
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 archived result, got %d", sink.count())
	}
}

func TestLeadSubmitGuardAndFailure(t *testing.T) {
	s := NewSession("tok", untimed(false), nil, nil)
	startAssessment(t, s, 1, 2, 3)
	for i := 0; i < 9; i++ {
		if err := s.Answer(true); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
	if err := s.TalkToExpert(); err != nil {
		t.Fatalf("talk to expert: %v", err)
	}

	if err := s.BeginLeadSubmit(); err != nil {
		t.Fatalf("begin submit: %v", err)
	}
	if err := s.BeginLeadSubmit(); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	// Failure keeps the visitor on the form.
	s.FinishLeadSubmit(false, "")
	if snap := s.Snapshot(); snap.Screen != models.ScreenLeadForm {
		t.Fatalf("failed submit moved screen to %s", snap.Screen)
	}

	// A retry can then succeed.
	if err := s.BeginLeadSubmit(); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	s.FinishLeadSubmit(true, "Priya")
	snap := s.Snapshot()
	if snap.Screen != models.ScreenThankYou {
		t.Fatalf("expected thank_you, got %s", snap.Screen)
	}
	if snap.LeadName != "Priya" {
		t.Fatalf("expected lead name recorded, got %q", snap.LeadName)
	}
}

func TestSkipLeadResetsSession(t *testing.T) {
	s := NewSession("tok", untimed(false), nil, nil)
	startAssessment(t, s, 1, 2, 3)
	for i := 0; i < 9; i++ {
		if err := s.Answer(false); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
	if err := s.TalkToExpert(); err != nil {
		t.Fatalf("talk to expert: %v", err)
	}
	if err := s.SkipLead(); err != nil {
		t.Fatalf("skip lead: %v", err)
	}
	if snap := s.Snapshot(); snap.Screen != models.ScreenWelcome || len(snap.Responses) != 0 {
		t.Fatalf("skip must fully reset, got %+v", snap)
	}
}

func TestBookingFlowTransitions(t *testing.T) {
	s := NewSession("tok", untimed(false), nil, nil)
	startAssessment(t, s, 1, 2, 3)
	for i := 0; i < 9; i++ {
		if err := s.Answer(true); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}

	if err := s.BookSlot(); err != nil {
		t.Fatalf("book slot: %v", err)
	}
	if err := s.BackToResults(); err != nil {
		t.Fatalf("back to results: %v", err)
	}
	if err := s.BookSlot(); err != nil {
		t.Fatalf("book slot again: %v", err)
	}
	if err := s.CompleteBooking("Arun"); err != nil {
		t.Fatalf("complete booking: %v", err)
	}
	snap := s.Snapshot()
	if snap.Screen != models.ScreenThankYou || snap.LeadName != "Arun" {
		t.Fatalf("booking flow ended at %s (%q)", snap.Screen, snap.LeadName)
	}
}

func TestBookingSubmitGuard(t *testing.T) {
	s := NewSession("tok", untimed(false), nil, nil)
	startAssessment(t, s, 1, 2, 3)
	for i := 0; i < 9; i++ {
		if err := s.Answer(true); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
	if err := s.BookSlot(); err != nil {
		t.Fatalf("book slot: %v", err)
	}

	if err := s.BeginBookingSubmit(); err != nil {
		t.Fatalf("begin booking: %v", err)
	}
	// A second submit while the first is in flight must bounce.
	if err := s.BeginBookingSubmit(); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	// A failed save releases the latch for a retry.
	s.AbortBookingSubmit()
	if err := s.BeginBookingSubmit(); err != nil {
		t.Fatalf("retry booking: %v", err)
	}

	if err := s.CompleteBooking("Arun"); err != nil {
		t.Fatalf("complete booking: %v", err)
	}
	if snap := s.Snapshot(); snap.Screen != models.ScreenThankYou {
		t.Fatalf("expected thank_you, got %s", snap.Screen)
	}
}

func TestEndToEndScenario(t *testing.T) {
	s := NewSession("tok", untimed(false), nil, nil)
	startAssessment(t, s, 1, 4, 9)

	answers := []bool{
		true, true, false, // goal 1
		true, true, true, // goal 4
		false, false, false, // goal 9
	}
	for i, a := range answers {
		if err := s.Answer(a); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}

	snap := s.Snapshot()
	if snap.Screen != models.ScreenScoreResults {
		t.Fatalf("expected score_results, got %s", snap.Screen)
	}
	if len(snap.Responses) != 9 {
		t.Fatalf("expected 9 responses, got %d", len(snap.Responses))
	}
	if snap.Score != 5*models.AwardPerCorrect {
		t.Fatalf("expected score %d, got %d", 5*models.AwardPerCorrect, snap.Score)
	}

	wantGoals := []int{1, 1, 1, 4, 4, 4, 9, 9, 9}
	for i, resp := range snap.Responses {
		if resp.GoalID != wantGoals[i] {
			t.Fatalf("response %d: expected goal %d, got %d", i, wantGoals[i], resp.GoalID)
		}
		if resp.QuestionIndex != i%models.QuestionsPerGoal {
			t.Fatalf("response %d: expected question index %d, got %d", i, i%models.QuestionsPerGoal, resp.QuestionIndex)
		}
	}
}

func TestNotifierReceivesCues(t *testing.T) {
	type cueRec struct {
		mu   sync.Mutex
		cues []Cue
	}
	rec := &cueRec{}
	notify := notifierFunc(func(token string, cue Cue) {
		rec.mu.Lock()
		rec.cues = append(rec.cues, cue)
		rec.mu.Unlock()
	})

	s := NewSession("tok", untimed(false), notify, nil)
	startAssessment(t, s, 1, 2, 3)
	s.Answer(true)
	s.Answer(false)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := []Cue{CueCorrect, CueIncorrect}
	if len(rec.cues) != len(want) {
		t.Fatalf("expected %d cues, got %d", len(want), len(rec.cues))
	}
	for i, c := range want {
		if rec.cues[i] != c {
			t.Fatalf("cue %d: expected %s, got %s", i, c, rec.cues[i])
		}
	}
}

type notifierFunc func(token string, cue Cue)

func (f notifierFunc) Notify(token string, cue Cue) { f(token, cue) }
