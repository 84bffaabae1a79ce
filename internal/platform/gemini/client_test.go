package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moccicode/mbc-fridger-chef/internal/locale"
	"github.com/moccicode/mbc-fridger-chef/internal/recipe"
)

// fakeModel records what it was asked and replies with a canned response.
type fakeModel struct {
	calls    int
	prompts  []string
	response *genai.GenerateContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.calls++
	for _, p := range parts {
		if text, ok := p.(genai.Text); ok {
			f.prompts = append(f.prompts, string(text))
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type fakeCloser struct{ closed bool }

func (f *fakeCloser) Close() error {
	f.closed = true
	return nil
}

// newTestClient wires a client to fake, counting factory invocations.
func newTestClient(t *testing.T, apiKey string, fake *fakeModel) (*Client, *int, *genai.GenerationConfig, *fakeCloser) {
	t.Helper()
	opened := 0
	var gotCfg genai.GenerationConfig
	closer := &fakeCloser{}
	c := NewClient(apiKey, "", locale.MustGet("ko"), nil)
	c.newModel = func(ctx context.Context, key, modelName string, cfg genai.GenerationConfig) (contentGenerator, io.Closer, error) {
		opened++
		gotCfg = cfg
		assert.Equal(t, apiKey, key)
		assert.Equal(t, DefaultModel, modelName)
		return fake, closer, nil
	}
	return c, &opened, &gotCfg, closer
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}},
		}},
	}
}

func threeRecipesJSON(t *testing.T) string {
	t.Helper()
	var items []map[string]any
	for _, name := range []string{"베이컨 에그 토스트", "양파 베이컨 볶음밥", "에그 베이컨 샐러드"} {
		items = append(items, map[string]any{
			"name":         name,
			"description":  "간단한 한 끼",
			"ingredients":  []string{"달걀 2개", "양파 1/2개", "베이컨 3줄"},
			"instructions": []string{"재료를 손질한다", "볶는다"},
			"cookingTime":  "20분",
			"difficulty":   "쉬움",
			"calories":     "450kcal",
		})
	}
	data, err := json.Marshal(items)
	require.NoError(t, err)
	return string(data)
}

func TestGenerate(t *testing.T) {
	fake := &fakeModel{response: textResponse(threeRecipesJSON(t))}
	c, opened, cfg, _ := newTestClient(t, "test-key", fake)

	recipes, err := c.Generate(context.Background(), []string{"egg", "onion", "bacon"}, recipe.Lunch)
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.Equal(t, "베이컨 에그 토스트", recipes[0].Name)
	assert.Equal(t, "에그 베이컨 샐러드", recipes[2].Name)
	assert.Equal(t, recipe.Easy, recipes[0].Difficulty)

	// One request carrying the prompt.
	assert.Equal(t, 1, fake.calls)
	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "egg, onion, bacon")
	assert.Contains(t, fake.prompts[0], "점심")

	// Structured output is requested.
	assert.Equal(t, 1, *opened)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.ResponseSchema)
	assert.Equal(t, genai.TypeArray, cfg.ResponseSchema.Type)

	// The SDK client is reused.
	_, err = c.Generate(context.Background(), []string{"egg"}, recipe.Dinner)
	require.NoError(t, err)
	assert.Equal(t, 1, *opened)
	assert.Equal(t, 2, fake.calls)
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	fake := &fakeModel{response: textResponse(threeRecipesJSON(t))}
	c, opened, _, _ := newTestClient(t, "", fake)

	recipes, err := c.Generate(context.Background(), []string{"egg"}, recipe.Breakfast)
	assert.Nil(t, recipes)
	assert.ErrorIs(t, err, recipe.ErrMissingAPIKey)

	// Nothing was opened or sent.
	assert.Equal(t, 0, *opened)
	assert.Equal(t, 0, fake.calls)
}

func TestGenerate_TransportError(t *testing.T) {
	quota := errors.New("googleapi: Error 429: Resource has been exhausted")
	fake := &fakeModel{err: quota}
	c, _, _, _ := newTestClient(t, "test-key", fake)

	recipes, err := c.Generate(context.Background(), []string{"egg"}, recipe.Lunch)
	assert.Nil(t, recipes)
	assert.ErrorIs(t, err, recipe.ErrTransport)
	assert.ErrorIs(t, err, quota)
	assert.Equal(t, 1, fake.calls)
}

func TestGenerate_FactoryError(t *testing.T) {
	c := NewClient("test-key", "", locale.MustGet("ko"), nil)
	c.newModel = func(ctx context.Context, key, modelName string, cfg genai.GenerationConfig) (contentGenerator, io.Closer, error) {
		return nil, nil, errors.New("dial failed")
	}

	_, err := c.Generate(context.Background(), []string{"egg"}, recipe.Lunch)
	assert.ErrorIs(t, err, recipe.ErrTransport)
	assert.Contains(t, err.Error(), "dial failed")
}

func TestGenerate_NoContent(t *testing.T) {
	responses := map[string]*genai.GenerateContentResponse{
		"nil response":  nil,
		"no candidates": {},
		"nil content":   {Candidates: []*genai.Candidate{{}}},
		"no parts":      {Candidates: []*genai.Candidate{{Content: &genai.Content{}}}},
		"blank text":    textResponse("  "),
	}

	for name, resp := range responses {
		t.Run(name, func(t *testing.T) {
			c, _, _, _ := newTestClient(t, "test-key", &fakeModel{response: resp})

			recipes, err := c.Generate(context.Background(), []string{"egg"}, recipe.Lunch)
			assert.Nil(t, recipes)
			assert.ErrorIs(t, err, recipe.ErrNoContent)
			assert.False(t, errors.Is(err, recipe.ErrMalformedResponse))
		})
	}
}

func TestGenerate_Malformed(t *testing.T) {
	c, _, _, _ := newTestClient(t, "test-key", &fakeModel{response: textResponse(`[{"name": "only one"}]`)})

	recipes, err := c.Generate(context.Background(), []string{"egg"}, recipe.Lunch)
	assert.Nil(t, recipes)
	assert.ErrorIs(t, err, recipe.ErrMalformedResponse)
}

func TestGenerate_MultipleTextParts(t *testing.T) {
	body := threeRecipesJSON(t)
	half := len(body) / 2
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(body[:half]), genai.Text(body[half:])}},
		}},
	}
	c, _, _, _ := newTestClient(t, "test-key", &fakeModel{response: resp})

	recipes, err := c.Generate(context.Background(), []string{"egg"}, recipe.Lunch)
	require.NoError(t, err)
	assert.Len(t, recipes, 3)
}

func TestResponseSchema(t *testing.T) {
	schema := ResponseSchema(locale.MustGet("ko"))

	require.NotNil(t, schema.Items)
	item := schema.Items
	assert.Equal(t, genai.TypeObject, item.Type)
	assert.ElementsMatch(t,
		[]string{"name", "description", "ingredients", "instructions", "cookingTime", "difficulty", "calories"},
		item.Required,
	)
	assert.Len(t, item.Properties, 7)
	assert.Equal(t, genai.TypeArray, item.Properties["ingredients"].Type)
	assert.Equal(t, genai.TypeString, item.Properties["instructions"].Items.Type)
	assert.Equal(t, []string{"쉬움", "보통", "어려움"}, item.Properties["difficulty"].Enum)
}

func TestClose(t *testing.T) {
	fake := &fakeModel{response: textResponse(threeRecipesJSON(t))}
	c, _, _, closer := newTestClient(t, "test-key", fake)

	// Closing before first use is a no-op.
	require.NoError(t, c.Close())
	assert.False(t, closer.closed)

	_, err := c.Generate(context.Background(), []string{"egg"}, recipe.Lunch)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.True(t, closer.closed)
}
