package kitchen

import (
	"slices"
	"time"

	"github.com/moccicode/mbc-fridger-chef/internal/recipe"
)

// Status is the phase of the generation lifecycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// State is a renderable snapshot of the application. Version increases with
// every change, so a later snapshot always has a higher Version.
type State struct {
	Version      uint64
	Status       Status
	Ingredients  []string
	MealTime     recipe.MealTime
	Recipes      []recipe.Recipe
	Error        string
	GenerationID string
	UpdatedAt    time.Time
}

// Loading reports whether a generation is in flight.
func (s State) Loading() bool {
	return s.Status == StatusLoading
}

func (s State) clone() State {
	out := s
	out.Ingredients = slices.Clone(s.Ingredients)
	if s.Recipes != nil {
		out.Recipes = make([]recipe.Recipe, len(s.Recipes))
		for i, r := range s.Recipes {
			r.Ingredients = slices.Clone(r.Ingredients)
			r.Instructions = slices.Clone(r.Instructions)
			out.Recipes[i] = r
		}
	}
	return out
}
