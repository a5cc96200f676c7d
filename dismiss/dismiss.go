// Package dismiss closes cookie banners, consent dialogs and similar
// overlays before a capture.
package dismiss

import (
	"context"
	"fmt"
	"time"

	"multishot/logger"
	"multishot/settle"
)

const (
	defaultVisibleTimeout = 500 * time.Millisecond
	defaultClickTimeout   = 1 * time.Second
	defaultClickPause     = 500 * time.Millisecond
	defaultSettlePause    = 1 * time.Second
)

// Rule selects dismissal candidates: every element matching CSS whose
// rendered text contains Text, compared case-insensitively. An empty Text
// matches any element.
type Rule struct {
	CSS  string
	Text string
}

// String renders the rule in has-text notation for logs.
func (r Rule) String() string {
	if r.Text == "" {
		return r.CSS
	}
	return fmt.Sprintf("%s:has-text(%q)", r.CSS, r.Text)
}

// Target is the page surface the engine needs.
type Target interface {
	Count(ctx context.Context, css, text string) (int, error)
	Visible(ctx context.Context, css, text string, index int, timeout time.Duration) (bool, error)
	Click(ctx context.Context, css, text string, index int, timeout time.Duration) error
}

// Engine applies an ordered rule table in a single greedy pass.
type Engine struct {
	rules          []Rule
	visibleTimeout time.Duration
	clickTimeout   time.Duration
	clickPause     time.Duration
	settlePause    time.Duration
	pause          func(context.Context, time.Duration) error
	logger         logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the rule table.
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithTimeouts overrides the per-candidate visibility and click timeouts.
func WithTimeouts(visible, click time.Duration) Option {
	return func(e *Engine) {
		e.visibleTimeout = visible
		e.clickTimeout = click
	}
}

// WithPause replaces the sleep used between clicks.
func WithPause(pause func(context.Context, time.Duration) error) Option {
	return func(e *Engine) {
		e.pause = pause
	}
}

// New creates an Engine using DefaultRules. A nil log discards output.
func New(log logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	e := &Engine{
		rules:          DefaultRules,
		visibleTimeout: defaultVisibleTimeout,
		clickTimeout:   defaultClickTimeout,
		clickPause:     defaultClickPause,
		settlePause:    defaultSettlePause,
		pause:          settle.Wait,
		logger:         log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dismiss walks the rules in order and clicks at most one visible match per
// rule. Failures on a candidate are ignored. It returns the number of
// elements clicked.
func (e *Engine) Dismiss(ctx context.Context, target Target) int {
	closed := 0
	for _, rule := range e.rules {
		if ctx.Err() != nil {
			break
		}
		if e.applyRule(ctx, target, rule) {
			closed++
			e.logger.Debug("Pop-up dismissed", logger.String("rule", rule.String()))
			_ = e.pause(ctx, e.clickPause)
		}
	}

	if closed > 0 {
		e.logger.Info("Pop-ups dismissed", logger.Int("count", closed))
		_ = e.pause(ctx, e.settlePause)
	} else {
		e.logger.Debug("No pop-ups found to dismiss")
	}
	return closed
}

// applyRule clicks the first visible candidate of rule, in document order.
func (e *Engine) applyRule(ctx context.Context, target Target, rule Rule) bool {
	count, err := target.Count(ctx, rule.CSS, rule.Text)
	if err != nil || count == 0 {
		return false
	}
	for i := 0; i < count; i++ {
		visible, err := target.Visible(ctx, rule.CSS, rule.Text, i, e.visibleTimeout)
		if err != nil || !visible {
			continue
		}
		if err := target.Click(ctx, rule.CSS, rule.Text, i, e.clickTimeout); err != nil {
			continue
		}
		return true
	}
	return false
}
