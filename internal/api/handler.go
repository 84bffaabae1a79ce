package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moccicode/mbc-fridger-chef/internal/kitchen"
	"github.com/moccicode/mbc-fridger-chef/internal/locale"
	"github.com/moccicode/mbc-fridger-chef/internal/recipe"
)

const (
	defaultAttemptLimit = 20
	maxAttemptLimit     = 100
)

// StateController defines the interface for the application state owner.
type StateController interface {
	Snapshot() kitchen.State
	AddIngredient(item string) (bool, error)
	RemoveIngredient(index int) error
	SetMealTime(mt recipe.MealTime) error
	Generate(ctx context.Context) error
}

// AttemptLister defines the interface for reading the attempt log.
type AttemptLister interface {
	ListAttempts(ctx context.Context, limit int) ([]*recipe.Attempt, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Controller StateController
	Attempts   AttemptLister
	Locale     *locale.Locale
	Logger     *zap.Logger
}

// NewHandler creates a new Handler. attempts may be nil when no attempt log
// is configured.
func NewHandler(controller StateController, attempts AttemptLister, loc *locale.Locale, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Controller: controller, Attempts: attempts, Locale: loc, Logger: logger}
}

// Register mounts the handler's routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/meal-times", h.GetMealTimes)
	r.GET("/state", h.GetState)
	r.POST("/ingredients", h.AddIngredient)
	r.DELETE("/ingredients/:index", h.RemoveIngredient)
	r.PUT("/meal-time", h.SetMealTime)
	r.POST("/recipes", h.GenerateRecipes)
	r.GET("/attempts", h.GetAttempts)
}

type mealTimeView struct {
	Value recipe.MealTime `json:"value"`
	Label string          `json:"label"`
}

type recipeView struct {
	recipe.Recipe
	DifficultyLabel string `json:"difficulty_label"`
}

type stateView struct {
	Status       kitchen.Status `json:"status"`
	Loading      bool           `json:"loading"`
	Ingredients  []string       `json:"ingredients"`
	MealTime     mealTimeView   `json:"meal_time"`
	Recipes      []recipeView   `json:"recipes"`
	Error        string         `json:"error,omitempty"`
	GenerationID string         `json:"generation_id,omitempty"`
	Version      uint64         `json:"version"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (h *Handler) mealTime(mt recipe.MealTime) mealTimeView {
	return mealTimeView{Value: mt, Label: h.Locale.MealTimeLabel(string(mt))}
}

func (h *Handler) view(s kitchen.State) stateView {
	v := stateView{
		Status:       s.Status,
		Loading:      s.Loading(),
		Ingredients:  append([]string{}, s.Ingredients...),
		MealTime:     h.mealTime(s.MealTime),
		Recipes:      make([]recipeView, 0, len(s.Recipes)),
		Error:        s.Error,
		GenerationID: s.GenerationID,
		Version:      s.Version,
		UpdatedAt:    s.UpdatedAt,
	}
	for _, r := range s.Recipes {
		v.Recipes = append(v.Recipes, recipeView{Recipe: r, DifficultyLabel: h.Locale.DifficultyLabel(string(r.Difficulty))})
	}
	return v
}

// GetMealTimes lists the selectable meal times with their labels.
func (h *Handler) GetMealTimes(c *gin.Context) {
	views := make([]mealTimeView, 0, len(recipe.MealTimes))
	for _, mt := range recipe.MealTimes {
		views = append(views, h.mealTime(mt))
	}
	c.JSON(http.StatusOK, views)
}

// GetState returns the current state snapshot.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.view(h.Controller.Snapshot()))
}

type addIngredientRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddIngredient appends an ingredient. Duplicates are accepted and ignored.
func (h *Handler) AddIngredient(c *gin.Context) {
	var req addIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	added, err := h.Controller.AddIngredient(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	c.JSON(status, h.view(h.Controller.Snapshot()))
}

// RemoveIngredient deletes the ingredient at the :index path parameter.
func (h *Handler) RemoveIngredient(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}

	if err := h.Controller.RemoveIngredient(index); err != nil {
		if errors.Is(err, kitchen.ErrIngredientIndex) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.view(h.Controller.Snapshot()))
}

type setMealTimeRequest struct {
	MealTime string `json:"meal_time" binding:"required"`
}

// SetMealTime selects the meal time for the next generation.
func (h *Handler) SetMealTime(c *gin.Context) {
	var req setMealTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mt, err := recipe.ParseMealTime(req.MealTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Controller.SetMealTime(mt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.view(h.Controller.Snapshot()))
}

// GenerateRecipes runs one generation for the current inputs and returns the
// resulting state.
func (h *Handler) GenerateRecipes(c *gin.Context) {
	err := h.Controller.Generate(c.Request.Context())
	switch {
	case errors.Is(err, kitchen.ErrNoIngredients):
		c.JSON(http.StatusBadRequest, gin.H{"error": h.Locale.Messages.EmptyIngredients})
	case errors.Is(err, kitchen.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": h.Locale.Messages.Superseded})
	case err != nil:
		c.JSON(http.StatusBadGateway, h.view(h.Controller.Snapshot()))
	default:
		c.JSON(http.StatusOK, h.view(h.Controller.Snapshot()))
	}
}

// GetAttempts lists recent generation attempts for diagnostics.
func (h *Handler) GetAttempts(c *gin.Context) {
	if h.Attempts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attempt log is not configured"})
		return
	}

	limit := defaultAttemptLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxAttemptLimit)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	attempts, err := h.Attempts.ListAttempts(ctx, limit)
	if err != nil {
		h.Logger.Error("failed to list attempts", zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusRequestTimeout, gin.H{"error": "database query timed out after 5 seconds"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	c.JSON(http.StatusOK, attempts)
}
