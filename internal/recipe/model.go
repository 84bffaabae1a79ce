package recipe

import (
	"fmt"
	"strings"
)

// MealTime is the meal a set of suggestions is meant for.
type MealTime string

const (
	Breakfast MealTime = "breakfast"
	Lunch     MealTime = "lunch"
	Dinner    MealTime = "dinner"
)

// MealTimes lists every meal time in display order.
var MealTimes = []MealTime{Breakfast, Lunch, Dinner}

// DefaultMealTime is preselected for a fresh session.
const DefaultMealTime = Lunch

// ParseMealTime converts user input into a MealTime.
func ParseMealTime(s string) (MealTime, error) {
	mt := MealTime(strings.ToLower(strings.TrimSpace(s)))
	if !mt.Valid() {
		return "", fmt.Errorf("invalid meal time %q", s)
	}
	return mt, nil
}

// Valid reports whether mt is one of the defined meal times.
func (mt MealTime) Valid() bool {
	switch mt {
	case Breakfast, Lunch, Dinner:
		return true
	}
	return false
}

// Difficulty is how hard a recipe is to cook.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists every difficulty from easiest to hardest.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// Valid reports whether d is one of the defined difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// Recipe represents one generated suggestion.
type Recipe struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Ingredients  []string   `json:"ingredients"`
	Instructions []string   `json:"instructions"`
	CookingTime  string     `json:"cookingTime"`
	Difficulty   Difficulty `json:"difficulty"`
	Calories     string     `json:"calories"`
}

// Validate checks that every field is populated and the difficulty is known.
func (r *Recipe) Validate() error {
	for field, value := range map[string]string{
		"name":        r.Name,
		"description": r.Description,
		"cookingTime": r.CookingTime,
		"calories":    r.Calories,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("field %s is empty", field)
		}
	}
	for field, items := range map[string][]string{
		"ingredients":  r.Ingredients,
		"instructions": r.Instructions,
	} {
		if len(items) == 0 {
			return fmt.Errorf("field %s is empty", field)
		}
		for i, item := range items {
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("field %s item %d is blank", field, i+1)
			}
		}
	}
	if !r.Difficulty.Valid() {
		return fmt.Errorf("invalid difficulty %q", r.Difficulty)
	}
	return nil
}
