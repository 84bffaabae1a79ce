// Package kitchen owns the application state: the ingredient list, the meal
// time, and the outcome of the latest recipe generation.
package kitchen

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moccicode/mbc-fridger-chef/internal/locale"
	"github.com/moccicode/mbc-fridger-chef/internal/recipe"
)

var (
	// ErrNoIngredients is returned by Generate when the ingredient list is empty.
	ErrNoIngredients = errors.New("at least one ingredient is required")
	// ErrBlankIngredient is returned when adding an empty ingredient.
	ErrBlankIngredient = errors.New("ingredient must not be blank")
	// ErrIngredientIndex is returned when removing an ingredient that does not exist.
	ErrIngredientIndex = errors.New("ingredient index out of range")
	// ErrGenerationFailed is returned when the generator failed. The detail is
	// logged, not returned.
	ErrGenerationFailed = errors.New("recipe generation failed")
	// ErrSuperseded is returned by a Generate call that a newer call replaced.
	ErrSuperseded = errors.New("generation superseded by a newer request")
)

const recordTimeout = 5 * time.Second

// Generator produces recipe suggestions.
type Generator interface {
	Generate(ctx context.Context, ingredients []string, mealTime recipe.MealTime) ([]recipe.Recipe, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLocale sets the language of user-facing messages.
func WithLocale(loc *locale.Locale) Option {
	return func(c *Controller) { c.locale = loc }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithTimeout bounds each generation call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithAttemptStore records every generation attempt in store.
func WithAttemptStore(store recipe.AttemptStore) Option {
	return func(c *Controller) { c.attempts = store }
}

// Controller holds the single application state and runs generations
// against a Generator. All methods are safe for concurrent use. The lock is
// not held while the generator runs, so the inputs stay editable during a
// request.
type Controller struct {
	generator Generator
	locale    *locale.Locale
	logger    *zap.Logger
	timeout   time.Duration
	attempts  recipe.AttemptStore

	mu          sync.Mutex
	state       State
	seq         uint64
	cancel      context.CancelFunc
	subscribers map[int]func(State)
	nextSubID   int

	// notifyMu serializes delivery so subscribers never see versions go back.
	notifyMu  sync.Mutex
	delivered uint64
}

// NewController creates a Controller in the idle state with the default
// meal time selected.
func NewController(generator Generator, opts ...Option) *Controller {
	c := &Controller{
		generator:   generator,
		locale:      locale.MustGet(locale.Default),
		logger:      zap.NewNop(),
		subscribers: make(map[int]func(State)),
		state: State{
			Status:    StatusIdle,
			MealTime:  recipe.DefaultMealTime,
			UpdatedAt: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to receive a snapshot after every state change.
// Snapshots arrive one at a time in increasing Version order. A snapshot
// overtaken by a newer one before delivery is skipped, so fn always ends on
// the latest state. fn must not call back into the Controller. The returned
// function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// AddIngredient appends item after trimming it. Adding an ingredient that is
// already listed is a no-op and reports false.
func (c *Controller) AddIngredient(item string) (bool, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return false, ErrBlankIngredient
	}

	c.mu.Lock()
	if slices.Contains(c.state.Ingredients, item) {
		c.mu.Unlock()
		return false, nil
	}
	c.state.Ingredients = append(c.state.Ingredients, item)
	snap := c.touchLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true, nil
}

// RemoveIngredient deletes the ingredient at index.
func (c *Controller) RemoveIngredient(index int) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.state.Ingredients) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrIngredientIndex, index)
	}
	c.state.Ingredients = slices.Delete(slices.Clone(c.state.Ingredients), index, index+1)
	snap := c.touchLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// SetMealTime selects the meal time used by the next generation.
func (c *Controller) SetMealTime(mt recipe.MealTime) error {
	if !mt.Valid() {
		return fmt.Errorf("invalid meal time %q", mt)
	}

	c.mu.Lock()
	c.state.MealTime = mt
	snap := c.touchLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Generate requests three recipes for the current ingredients and meal time
// and blocks until the generator answers.
//
// An empty ingredient list is rejected with ErrNoIngredients without any
// state change. Starting a generation cancels one that is still in flight;
// the older call then returns ErrSuperseded and leaves the state alone. Any
// generator error moves the state to failed with a generic message and is
// reported as ErrGenerationFailed.
func (c *Controller) Generate(ctx context.Context) error {
	c.mu.Lock()
	if len(c.state.Ingredients) == 0 {
		c.mu.Unlock()
		return ErrNoIngredients
	}

	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq

	var callCtx context.Context
	var cancel context.CancelFunc
	if c.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	c.cancel = cancel

	attempt := &recipe.Attempt{
		ID:          uuid.NewString(),
		Ingredients: slices.Clone(c.state.Ingredients),
		MealTime:    c.state.MealTime,
		CreatedAt:   time.Now(),
	}
	c.state.Status = StatusLoading
	c.state.Error = ""
	c.state.GenerationID = attempt.ID
	snap := c.touchLocked()
	c.mu.Unlock()

	c.notify(snap)
	c.logger.Info("generating recipes",
		zap.String("generation_id", attempt.ID),
		zap.Strings("ingredients", attempt.Ingredients),
		zap.String("meal_time", string(attempt.MealTime)),
	)

	recipes, err := c.generator.Generate(callCtx, attempt.Ingredients, attempt.MealTime)
	cancel()
	if err == nil && len(recipes) != recipe.SuggestionCount {
		err = fmt.Errorf("%w: expected %d recipes, got %d", recipe.ErrMalformedResponse, recipe.SuggestionCount, len(recipes))
	}
	attempt.DurationMS = time.Since(attempt.CreatedAt).Milliseconds()

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		attempt.Outcome = recipe.OutcomeSuperseded
		attempt.ErrorKind = recipe.ErrorKind(err)
		if err != nil {
			attempt.ErrorDetail = err.Error()
		}
		c.logger.Info("discarding superseded generation", zap.String("generation_id", attempt.ID))
		c.record(ctx, attempt)
		return ErrSuperseded
	}
	c.cancel = nil
	if err != nil {
		c.state.Status = StatusFailed
		c.state.Error = c.locale.Messages.GenerationFailed
	} else {
		c.state.Status = StatusSuccess
		c.state.Recipes = recipes
	}
	snap = c.touchLocked()
	c.mu.Unlock()

	c.notify(snap)

	if err != nil {
		attempt.Outcome = recipe.OutcomeFailed
		attempt.ErrorKind = recipe.ErrorKind(err)
		attempt.ErrorDetail = err.Error()
		c.logger.Error("recipe generation failed",
			zap.String("generation_id", attempt.ID),
			zap.String("kind", attempt.ErrorKind),
			zap.Error(err),
		)
		c.record(ctx, attempt)
		return ErrGenerationFailed
	}

	attempt.Outcome = recipe.OutcomeSuccess
	attempt.RecipeCount = len(recipes)
	c.logger.Info("recipes generated",
		zap.String("generation_id", attempt.ID),
		zap.Int64("duration_ms", attempt.DurationMS),
	)
	c.record(ctx, attempt)
	return nil
}

// touchLocked stamps the state and returns a snapshot. c.mu must be held.
func (c *Controller) touchLocked() State {
	c.state.Version++
	c.state.UpdatedAt = time.Now()
	return c.state.clone()
}

func (c *Controller) notify(snap State) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if snap.Version <= c.delivered {
		return
	}
	c.delivered = snap.Version

	c.mu.Lock()
	subs := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (c *Controller) record(ctx context.Context, attempt *recipe.Attempt) {
	if c.attempts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := c.attempts.SaveAttempt(ctx, attempt); err != nil {
		c.logger.Warn("failed to record generation attempt",
			zap.String("generation_id", attempt.ID),
			zap.Error(err),
		)
	}
}
