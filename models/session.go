package models

// Snapshot is the API-visible view of one game session. The game package
// produces it under lock; handlers serialize it as-is.
type Snapshot struct {
	Token                string     `json:"token"`
	Screen               Screen     `json:"screen"`
	SelectedGoals        []Goal     `json:"selected_goals"`
	CurrentGoalIndex     int        `json:"current_goal_index"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	Responses            []Response `json:"responses"`
	Score                int        `json:"score"`
	Lives                int        `json:"lives"`
	LeadName             string     `json:"lead_name,omitempty"`
	GameOver             bool       `json:"game_over"`
	QuestionSecondsLeft  int        `json:"question_seconds_left"`
	SessionSecondsLeft   int        `json:"session_seconds_left"`
}

// Percentage converts the score into a 0-100 preparedness percentage.
func (s *Snapshot) Percentage() int {
	return s.Score * 100 / TotalPossibleScore
}
