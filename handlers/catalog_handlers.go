package handlers

import (
	"net/http"

	"github.com/lifegoals/quest-api/catalog"
	"github.com/lifegoals/quest-api/utils"
)

type CatalogHandlers struct{}

func NewCatalogHandlers() *CatalogHandlers {
	return &CatalogHandlers{}
}

func (ch *CatalogHandlers) HandleGoals(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("%s /goals", r.Method)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, catalog.Goals())
}

func (ch *CatalogHandlers) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	utils.LogHTTP("%s /questions", r.Method)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, catalog.Questions())
}
