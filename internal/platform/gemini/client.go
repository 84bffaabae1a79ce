package gemini

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/moccicode/mbc-fridger-chef/internal/locale"
	"github.com/moccicode/mbc-fridger-chef/internal/recipe"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

// contentGenerator is the part of *genai.GenerativeModel the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// modelFactory opens an SDK client and returns a model configured with cfg.
type modelFactory func(ctx context.Context, apiKey, modelName string, cfg genai.GenerationConfig) (contentGenerator, io.Closer, error)

// Client generates recipe suggestions with the Gemini API.
type Client struct {
	apiKey    string
	modelName string
	locale    *locale.Locale
	logger    *zap.Logger
	newModel  modelFactory

	mu     sync.Mutex
	model  contentGenerator
	closer io.Closer
}

// NewClient creates a new Gemini client. The SDK connection is opened on the
// first Generate call, so an empty apiKey is only reported then.
func NewClient(apiKey, modelName string, loc *locale.Locale, logger *zap.Logger) *Client {
	if modelName == "" {
		modelName = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:    apiKey,
		modelName: modelName,
		locale:    loc,
		logger:    logger,
		newModel:  newGenAIModel,
	}
}

func newGenAIModel(ctx context.Context, apiKey, modelName string, cfg genai.GenerationConfig) (contentGenerator, io.Closer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, nil, err
	}
	model := client.GenerativeModel(modelName)
	model.GenerationConfig = cfg
	return model, client, nil
}

// ResponseSchema is the structured output schema sent with every request:
// an array of objects with the seven recipe fields, all required.
func ResponseSchema(loc *locale.Locale) *genai.Schema {
	difficulties := make([]string, 0, len(recipe.Difficulties))
	for _, d := range recipe.Difficulties {
		difficulties = append(difficulties, loc.DifficultyLabel(string(d)))
	}
	stringList := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name":         {Type: genai.TypeString},
				"description":  {Type: genai.TypeString},
				"ingredients":  stringList,
				"instructions": stringList,
				"cookingTime":  {Type: genai.TypeString},
				"difficulty":   {Type: genai.TypeString, Format: "enum", Enum: difficulties},
				"calories":     {Type: genai.TypeString},
			},
			Required: []string{"name", "description", "ingredients", "instructions", "cookingTime", "difficulty", "calories"},
		},
	}
}

func (c *Client) generator(ctx context.Context) (contentGenerator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model != nil {
		return c.model, nil
	}
	cfg := genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(c.locale),
	}
	model, closer, err := c.newModel(context.WithoutCancel(ctx), c.apiKey, c.modelName, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %w", err)
	}
	c.model, c.closer = model, closer
	return model, nil
}

// Generate asks the model for three recipes that use ingredients and suit
// mealTime. It makes exactly one request and never retries.
func (c *Client) Generate(ctx context.Context, ingredients []string, mealTime recipe.MealTime) ([]recipe.Recipe, error) {
	if c.apiKey == "" {
		return nil, recipe.ErrMissingAPIKey
	}

	model, err := c.generator(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrTransport, err)
	}

	prompt := recipe.BuildPrompt(c.locale, ingredients, mealTime)
	c.logger.Debug("requesting recipes from gemini",
		zap.String("model", c.modelName),
		zap.Strings("ingredients", ingredients),
		zap.String("meal_time", string(mealTime)),
	)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrTransport, err)
	}

	recipes, err := recipe.ParseSuggestions(responseText(resp), c.locale)
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// Close releases the SDK client if one was opened.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.model, c.closer = nil, nil
	return err
}
