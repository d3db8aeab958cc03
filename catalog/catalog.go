// Package catalog holds the static game content: the nine life goals a
// visitor can choose from and the three assessment questions asked for
// every selected goal.
package catalog

import "github.com/lifegoals/quest-api/models"

var lifeGoals = []models.Goal{
	{ID: 1, Name: "Child's Education", IconKey: "GraduationCap", Description: "Secure your child's academic future"},
	{ID: 2, Name: "Child's Marriage", IconKey: "Heart", Description: "Plan for your child's special day"},
	{ID: 3, Name: "Retirement Planning", IconKey: "Sunset", Description: "Enjoy a comfortable retired life"},
	{ID: 4, Name: "Buying a Home", IconKey: "Home", Description: "Own your dream house"},
	{ID: 5, Name: "Building Emergency Fund", IconKey: "Shield", Description: "Be prepared for unexpected expenses"},
	{ID: 6, Name: "Starting a Business", IconKey: "Rocket", Description: "Launch your entrepreneurial journey"},
	{ID: 7, Name: "World Travel", IconKey: "Plane", Description: "Explore destinations around the globe"},
	{ID: 8, Name: "Wealth Creation", IconKey: "TrendingUp", Description: "Grow and multiply your assets"},
	{ID: 9, Name: "Health Security", IconKey: "HeartPulse", Description: "Protect your family's health"},
}

var assessmentQuestions = []models.AssessmentQuestion{
	{ID: 1, Text: "Are you aware of which financial planning or investments can help achieve this goal?"},
	{ID: 2, Text: "Have you done enough financial planning or investments for this goal?"},
	{ID: 3, Text: "Do you believe you can achieve this life goal?"},
}

// Goals returns the nine selectable life goals.
func Goals() []models.Goal {
	out := make([]models.Goal, len(lifeGoals))
	copy(out, lifeGoals)
	return out
}

// Questions returns the three assessment questions, asked once per goal.
func Questions() []models.AssessmentQuestion {
	out := make([]models.AssessmentQuestion, len(assessmentQuestions))
	copy(out, assessmentQuestions)
	return out
}

// GoalByID looks up a goal by its catalog ID.
func GoalByID(id int) (models.Goal, bool) {
	for _, g := range lifeGoals {
		if g.ID == id {
			return g, true
		}
	}
	return models.Goal{}, false
}
