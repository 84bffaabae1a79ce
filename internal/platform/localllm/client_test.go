package localllm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moccicode/mbc-fridger-chef/internal/locale"
	"github.com/moccicode/mbc-fridger-chef/internal/recipe"
)

const threeRecipes = `[
 {"name": "Bacon omelette", "description": "Classic", "ingredients": ["egg", "bacon"], "instructions": ["Whisk", "Cook"], "cookingTime": "10 min", "difficulty": "Easy", "calories": "350 kcal"},
 {"name": "Onion fried rice", "description": "Savory", "ingredients": ["rice", "onion", "egg"], "instructions": ["Fry onion", "Add rice", "Add egg"], "cookingTime": "20 min", "difficulty": "Medium", "calories": "520 kcal"},
 {"name": "Bacon quiche", "description": "Rich", "ingredients": ["egg", "bacon", "onion", "pastry"], "instructions": ["Blind bake", "Fill", "Bake"], "cookingTime": "60 min", "difficulty": "Hard", "calories": "610 kcal"}
]`

// chatServer answers every completion request with content and records the
// decoded requests.
func chatServer(t *testing.T, status int, content string) (*httptest.Server, *[]Request) {
	t.Helper()
	var requests []Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error": "model not loaded"}`))
			return
		}
		json.NewEncoder(w).Encode(Response{Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}}})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestGenerate(t *testing.T) {
	srv, requests := chatServer(t, http.StatusOK, "```json\n"+threeRecipes+"\n```")
	c := NewClient(srv.URL, "gemma-3-12b-it", locale.MustGet("en"), nil)

	recipes, err := c.Generate(context.Background(), []string{"egg", "onion", "bacon"}, recipe.Lunch)
	require.NoError(t, err)
	require.Len(t, recipes, 3)
	assert.Equal(t, "Bacon omelette", recipes[0].Name)
	assert.Equal(t, recipe.Hard, recipes[2].Difficulty)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "gemma-3-12b-it", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "egg, onion, bacon")
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, "json_schema", req.ResponseFormat.Type)
	assert.Equal(t, "array", req.ResponseFormat.JSONSchema.Schema["type"])
}

func TestGenerate_NonOK(t *testing.T) {
	srv, _ := chatServer(t, http.StatusServiceUnavailable, "")
	c := NewClient(srv.URL, "m", locale.MustGet("en"), nil)

	recipes, err := c.Generate(context.Background(), []string{"egg"}, recipe.Dinner)
	assert.Nil(t, recipes)
	assert.ErrorIs(t, err, recipe.ErrTransport)
	assert.Contains(t, err.Error(), "503")
}

func TestGenerate_Unreachable(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, threeRecipes)
	url := srv.URL
	srv.Close()

	c := NewClient(url, "m", locale.MustGet("en"), nil)
	_, err := c.Generate(context.Background(), []string{"egg"}, recipe.Dinner)
	assert.ErrorIs(t, err, recipe.ErrTransport)
}

func TestGenerate_EmptyAndMalformed(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, "")
	c := NewClient(srv.URL, "m", locale.MustGet("en"), nil)
	_, err := c.Generate(context.Background(), []string{"egg"}, recipe.Dinner)
	assert.ErrorIs(t, err, recipe.ErrNoContent)

	srv, _ = chatServer(t, http.StatusOK, "Sorry, I only know one recipe.")
	c = NewClient(srv.URL, "m", locale.MustGet("en"), nil)
	_, err = c.Generate(context.Background(), []string{"egg"}, recipe.Dinner)
	assert.ErrorIs(t, err, recipe.ErrMalformedResponse)
}

func TestGenerateContent_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", locale.MustGet("ko"), nil)
	_, err := c.GenerateContent(context.Background(), "hi")
	assert.ErrorIs(t, err, recipe.ErrNoContent)
}
