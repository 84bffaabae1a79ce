// Package locale holds the user-facing strings and prompt template for each
// supported response language.
package locale

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed locales.json
var localesJSON []byte

// Default is the language used when none is configured.
const Default = "ko"

// Locale is the text catalogue for one language.
type Locale struct {
	Code         string            `json:"-"`
	Language     string            `json:"language"`
	MealTimes    map[string]string `json:"meal_times"`
	Difficulties map[string]string `json:"difficulties"`
	Prompt       string            `json:"prompt"`
	Messages     Messages          `json:"messages"`
}

// Messages are the short notices shown to the user.
type Messages struct {
	EmptyIngredients string `json:"empty_ingredients"`
	GenerationFailed string `json:"generation_failed"`
	Superseded       string `json:"superseded"`
}

var catalogue map[string]*Locale

func init() {
	if err := json.Unmarshal(localesJSON, &catalogue); err != nil {
		panic(fmt.Errorf("failed to unmarshal locales.json: %w", err))
	}
	for code, l := range catalogue {
		l.Code = code
	}
}

// Get returns the locale for code.
func Get(code string) (*Locale, error) {
	l, ok := catalogue[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q (supported: %s)", code, strings.Join(Codes(), ", "))
	}
	return l, nil
}

// MustGet is Get for codes known at compile time.
func MustGet(code string) *Locale {
	l, err := Get(code)
	if err != nil {
		panic(err)
	}
	return l
}

// Codes lists the supported language codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(catalogue))
	for code := range catalogue {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// MealTimeLabel returns the display label for a meal time key, or the key
// itself when the catalogue has no entry.
func (l *Locale) MealTimeLabel(key string) string {
	if label, ok := l.MealTimes[key]; ok {
		return label
	}
	return key
}

// DifficultyLabel returns the display label for a difficulty key.
func (l *Locale) DifficultyLabel(key string) string {
	if label, ok := l.Difficulties[key]; ok {
		return label
	}
	return key
}

// DifficultyKey resolves a label (or a key) back to its difficulty key.
// Matching ignores case and surrounding space.
func (l *Locale) DifficultyKey(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for key, value := range l.Difficulties {
		if strings.EqualFold(value, label) || strings.EqualFold(key, label) {
			return key, true
		}
	}
	return "", false
}
