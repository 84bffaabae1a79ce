package localllm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/moccicode/mbc-fridger-chef/internal/locale"
	"github.com/moccicode/mbc-fridger-chef/internal/recipe"
)

// Client generates recipe suggestions with an OpenAI-compatible
// chat-completions server such as LM Studio.
type Client struct {
	httpClient *http.Client
	apiURL     string
	model      string
	locale     *locale.Locale
	logger     *zap.Logger
}

// NewClient creates a new client for the local LLM at apiURL.
func NewClient(apiURL, model string, loc *locale.Locale, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{},
		apiURL:     apiURL,
		model:      model,
		locale:     loc,
		logger:     logger,
	}
}

// Request represents the request body for the local LLM.
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Message represents a message in the request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the server to constrain output to a JSON schema.
type ResponseFormat struct {
	Type       string     `json:"type"`
	JSONSchema JSONSchema `json:"json_schema"`
}

// JSONSchema names the schema attached to ResponseFormat.
type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// Response represents the response from the local LLM.
type Response struct {
	Choices []Choice `json:"choices"`
}

// Choice represents a choice in the response.
type Choice struct {
	Message Message `json:"message"`
}

// RecipeListSchema is the JSON schema for three recipes with every field
// required.
func RecipeListSchema(loc *locale.Locale) map[string]any {
	difficulties := make([]string, 0, len(recipe.Difficulties))
	for _, d := range recipe.Difficulties {
		difficulties = append(difficulties, loc.DifficultyLabel(string(d)))
	}
	stringList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	return map[string]any{
		"type":     "array",
		"minItems": recipe.SuggestionCount,
		"maxItems": recipe.SuggestionCount,
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":         map[string]any{"type": "string"},
				"description":  map[string]any{"type": "string"},
				"ingredients":  stringList,
				"instructions": stringList,
				"cookingTime":  map[string]any{"type": "string"},
				"difficulty":   map[string]any{"type": "string", "enum": difficulties},
				"calories":     map[string]any{"type": "string"},
			},
			"required":             []string{"name", "description", "ingredients", "instructions", "cookingTime", "difficulty", "calories"},
			"additionalProperties": false,
		},
	}
}

// GenerateContent sends prompt to the local LLM and returns the text of the
// first choice.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	reqBody := Request{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		Temperature: 1,
		MaxTokens:   4096,
		ResponseFormat: &ResponseFormat{
			Type: "json_schema",
			JSONSchema: JSONSchema{
				Name:   "recipes",
				Strict: true,
				Schema: RecipeListSchema(c.locale),
			},
		},
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send request: %w", recipe.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: received non-OK status code %d: %s", recipe.ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var llmResp Response
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response body: %w", recipe.ErrTransport, err)
	}

	if len(llmResp.Choices) == 0 {
		return "", recipe.ErrNoContent
	}
	return llmResp.Choices[0].Message.Content, nil
}

// Generate asks the local model for three recipes that use ingredients and
// suit mealTime.
func (c *Client) Generate(ctx context.Context, ingredients []string, mealTime recipe.MealTime) ([]recipe.Recipe, error) {
	prompt := recipe.BuildPrompt(c.locale, ingredients, mealTime)
	c.logger.Debug("requesting recipes from local llm",
		zap.String("url", c.apiURL),
		zap.String("model", c.model),
		zap.Strings("ingredients", ingredients),
		zap.String("meal_time", string(mealTime)),
	)

	text, err := c.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return recipe.ParseSuggestions(text, c.locale)
}
