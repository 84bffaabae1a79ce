package recipe

import (
	"fmt"
	"strings"

	"github.com/moccicode/mbc-fridger-chef/internal/locale"
)

// SuggestionCount is the number of recipes requested per generation.
const SuggestionCount = 3

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(loc *locale.Locale, ingredients []string, mealTime MealTime) string {
	return fmt.Sprintf(loc.Prompt, strings.Join(ingredients, ", "), loc.MealTimeLabel(string(mealTime)))
}
