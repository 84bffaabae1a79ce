package recipe

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/moccicode/mbc-fridger-chef/internal/locale"
)

// maxRawInError bounds how much model text is copied into an error.
const maxRawInError = 512

// suggestion mirrors one element of the model's JSON array. Pointers tell an
// absent field or a null list item apart from an empty one.
type suggestion struct {
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	Ingredients  *[]*string `json:"ingredients"`
	Instructions *[]*string `json:"instructions"`
	CookingTime  *string    `json:"cookingTime"`
	Difficulty   *string    `json:"difficulty"`
	Calories     *string    `json:"calories"`
}

// ParseSuggestions decodes the model's text into exactly SuggestionCount
// recipes in the order returned. Difficulty labels are resolved through loc.
// Either every recipe is valid or none is returned.
func ParseSuggestions(text string, loc *locale.Locale) ([]Recipe, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoContent
	}

	raw := stripFence(text)
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil, fmt.Errorf("%w: response is not a JSON array: %s", ErrMalformedResponse, truncate(raw))
	}

	var items []suggestion
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %w. Raw response: %s", ErrMalformedResponse, err, truncate(raw))
	}
	if len(items) != SuggestionCount {
		return nil, fmt.Errorf("%w: expected %d recipes, got %d", ErrMalformedResponse, SuggestionCount, len(items))
	}

	recipes := make([]Recipe, 0, len(items))
	for i, item := range items {
		r, err := item.toRecipe(loc)
		if err != nil {
			return nil, fmt.Errorf("%w: recipe %d: %w", ErrMalformedResponse, i+1, err)
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

func (s suggestion) toRecipe(loc *locale.Locale) (Recipe, error) {
	missing := []string{}
	for field, present := range map[string]bool{
		"name":         s.Name != nil,
		"description":  s.Description != nil,
		"ingredients":  s.Ingredients != nil,
		"instructions": s.Instructions != nil,
		"cookingTime":  s.CookingTime != nil,
		"difficulty":   s.Difficulty != nil,
		"calories":     s.Calories != nil,
	} {
		if !present {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return Recipe{}, fmt.Errorf("missing fields %s", strings.Join(missing, ", "))
	}

	ingredients, err := listItems("ingredients", *s.Ingredients)
	if err != nil {
		return Recipe{}, err
	}
	instructions, err := listItems("instructions", *s.Instructions)
	if err != nil {
		return Recipe{}, err
	}

	key, ok := loc.DifficultyKey(*s.Difficulty)
	if !ok {
		return Recipe{}, fmt.Errorf("unknown difficulty %q", *s.Difficulty)
	}

	r := Recipe{
		Name:         strings.TrimSpace(*s.Name),
		Description:  strings.TrimSpace(*s.Description),
		Ingredients:  ingredients,
		Instructions: instructions,
		CookingTime:  strings.TrimSpace(*s.CookingTime),
		Difficulty:   Difficulty(key),
		Calories:     strings.TrimSpace(*s.Calories),
	}
	if err := r.Validate(); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

func listItems(field string, items []*string) ([]string, error) {
	out := make([]string, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("field %s item %d is null", field, i+1)
		}
		out = append(out, strings.TrimSpace(*item))
	}
	return out, nil
}

// stripFence removes a markdown code fence around the body, if any.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func truncate(s string) string {
	if len(s) <= maxRawInError {
		return s
	}
	cut := maxRawInError
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
