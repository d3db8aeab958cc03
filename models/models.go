package models

import "time"

// Screen identifies which step of the game flow a session is on.
type Screen string

const (
	ScreenWelcome       Screen = "welcome"
	ScreenGoalSelection Screen = "goal_selection"
	ScreenInstructions  Screen = "instructions"
	ScreenAssessment    Screen = "assessment"
	ScreenScoreResults  Screen = "score_results"
	ScreenBooking       Screen = "booking"
	ScreenLeadForm      Screen = "lead_form"
	ScreenThankYou      Screen = "thank_you"
)

// Scoring constants. Every affirmative answer is worth AwardPerCorrect;
// 9 questions (3 goals x 3 questions) make TotalPossibleScore.
const (
	AwardPerCorrect    = 111
	QuestionsPerGoal   = 3
	GoalsPerSession    = 3
	TotalPossibleScore = AwardPerCorrect * QuestionsPerGoal * GoalsPerSession
	StartingLives      = 3
)

// Goal is one of the nine life-planning objectives a visitor can pick.
type Goal struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	IconKey     string `json:"icon"`
	Description string `json:"description"`
}

// AssessmentQuestion is one of the three yes/no prompts asked for every
// selected goal.
type AssessmentQuestion struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Response records one answered (or timed-out) question.
type Response struct {
	GoalID        int    `json:"goal_id"`
	GoalName      string `json:"goal_name"`
	QuestionIndex int    `json:"question_index"`
	Answer        bool   `json:"answer"`
}

// SelectGoalsRequest carries the visitor's three chosen goal IDs.
type SelectGoalsRequest struct {
	GoalIDs []int `json:"goal_ids"`
}

// AnswerRequest carries one yes/no answer together with the position the
// client believes it is answering. The position lets the server drop
// submissions that lost a race against the question timeout.
type AnswerRequest struct {
	GoalIndex     int  `json:"goal_index"`
	QuestionIndex int  `json:"question_index"`
	Answer        bool `json:"answer"`
}

// LeadFormRequest is the lead-capture form payload.
type LeadFormRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile,omitempty"`
	Pincode    string `json:"pincode,omitempty"`
	DOB        string `json:"dob,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	Education  string `json:"education,omitempty"`
	Income     string `json:"income,omitempty"`
}

// BookingRequest is the call-slot booking form payload.
type BookingRequest struct {
	Name          string `json:"name"`
	Mobile        string `json:"mobile"`
	Email         string `json:"email,omitempty"` // optional, for the confirmation
	PreferredDate string `json:"preferred_date"`
	PreferredTime string `json:"preferred_time"`
}

// Booking is a persisted booking request.
type Booking struct {
	ID            int       `json:"id"`
	SessionToken  string    `json:"session_token"`
	Name          string    `json:"name"`
	Mobile        string    `json:"mobile"`
	Email         string    `json:"email,omitempty"`
	PreferredDate string    `json:"preferred_date"`
	PreferredTime string    `json:"preferred_time"`
	Score         int       `json:"score"`
	Goals         []string  `json:"goals"`
	CreatedAt     time.Time `json:"created_at"`
}

// GameResult is the archived outcome of a completed session.
type GameResult struct {
	ID          int        `json:"id"`
	Token       string     `json:"token"`
	Score       int        `json:"score"`
	LivesLeft   int        `json:"lives_left"`
	Goals       []Goal     `json:"goals"`
	Responses   []Response `json:"responses"`
	CompletedAt time.Time  `json:"completed_at"`
}

// Preferences holds per-visitor settings that survive game restarts.
type Preferences struct {
	VisitorID string    `json:"visitor_id"`
	ThemeMode string    `json:"theme_mode"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PreferencesRequest updates visitor settings.
type PreferencesRequest struct {
	ThemeMode string `json:"theme_mode"`
}

// EmailConfig holds SMTP settings for booking confirmations.
type EmailConfig struct {
	SMTPHost    string
	SMTPPort    int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}
