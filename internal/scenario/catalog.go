// Package scenario supplies scenarios for practice sessions: a preset pool
// with difficulty-aware random selection, and the custom scenario builder.
package scenario

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"

	"github.com/ashureev/feedback-coach/internal/domain"
)

// ErrEmptyPool is returned when a preset set with no valid scenarios is installed.
var ErrEmptyPool = errors.New("scenario pool is empty")

// Catalog holds the immutable preset pool. The pool is swapped atomically on
// reload; readers always see a complete snapshot.
type Catalog struct {
	presets atomic.Pointer[[]domain.Scenario]
	intn    func(n int) int
	logger  *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithIntN overrides the random source. intn must return a value in [0, n).
func WithIntN(intn func(n int) int) Option {
	return func(c *Catalog) { c.intn = intn }
}

// WithLogger sets the catalog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) { c.logger = logger }
}

// WithPresets replaces the built-in pool. Invalid entries are dropped.
func WithPresets(presets []domain.Scenario) Option {
	return func(c *Catalog) {
		if err := c.Replace(presets); err != nil {
			c.logger.Warn("ignoring preset override", "error", err)
		}
	}
}

// NewCatalog creates a catalog seeded with DefaultPresets.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		intn:   rand.IntN,
		logger: slog.Default(),
	}
	defaults := DefaultPresets()
	c.presets.Store(&defaults)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Presets returns a copy of the current pool.
func (c *Catalog) Presets() []domain.Scenario {
	p := *c.presets.Load()
	out := make([]domain.Scenario, len(p))
	copy(out, p)
	return out
}

// Replace installs a new pool. Incomplete scenarios are dropped; if nothing
// valid remains the current pool is kept and ErrEmptyPool is returned.
func (c *Catalog) Replace(presets []domain.Scenario) error {
	valid := make([]domain.Scenario, 0, len(presets))
	for _, s := range presets {
		if !s.Complete() {
			c.logger.Warn("dropping incomplete preset", "id", s.ID, "title", s.Title)
			continue
		}
		valid = append(valid, s)
	}
	if len(valid) == 0 {
		return ErrEmptyPool
	}
	c.presets.Store(&valid)
	return nil
}

// ResolveDifficulty turns the Random selector into a concrete difficulty,
// uniformly. Concrete values are returned unchanged.
func (c *Catalog) ResolveDifficulty(d domain.Difficulty) domain.Difficulty {
	if d.IsConcrete() {
		return d
	}
	return domain.ConcreteDifficulties[c.intn(len(domain.ConcreteDifficulties))]
}

// SelectRandom picks a preset uniformly from those matching the difficulty.
// Random is resolved first. A band with no presets falls back to the full pool.
func (c *Catalog) SelectRandom(d domain.Difficulty) (domain.Scenario, error) {
	if !d.IsConcrete() && d != domain.DifficultyRandom {
		return domain.Scenario{}, fmt.Errorf("select scenario: %w: %q", domain.ErrInvalidDifficulty, d)
	}
	resolved := c.ResolveDifficulty(d)

	all := *c.presets.Load()
	pool := make([]domain.Scenario, 0, len(all))
	for _, s := range all {
		if s.Difficulty == resolved {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		pool = all
	}
	return pool[c.intn(len(pool))], nil
}
