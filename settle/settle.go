// Package settle gives pages time to finish rendering: fixed delays and a
// smooth scroll that triggers scroll-driven reveal animations.
package settle

import (
	"context"
	"fmt"
	"math"
	"time"

	"multishot/logger"
)

const (
	// StepSize is the distance covered by each scroll increment, in pixels.
	StepSize = 80
	// StepPause separates scroll increments.
	StepPause = 80 * time.Millisecond
	// FinalPause lets reveal animations complete after the scroll.
	FinalPause = 1 * time.Second
	// progressEvery controls how often scroll progress is logged, in percent.
	progressEvery = 20.0
)

// Wait blocks for d or until ctx is done. A non-positive d returns at once.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Evaluator runs JavaScript in a page.
type Evaluator interface {
	Evaluate(ctx context.Context, script string, out any) error
}

// Scroller performs an incremental scroll to the bottom of a page and then
// forces common reveal-on-scroll libraries into their final state.
type Scroller struct {
	logger logger.Logger
	pause  func(context.Context, time.Duration) error
}

// NewScroller creates a Scroller. A nil log discards output.
func NewScroller(log logger.Logger) *Scroller {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scroller{logger: log, pause: Wait}
}

// Scroll walks the page top to bottom in StepSize increments.
func (s *Scroller) Scroll(ctx context.Context, page Evaluator) error {
	var total, viewport float64
	if err := page.Evaluate(ctx, "document.body.scrollHeight", &total); err != nil {
		return fmt.Errorf("read page height: %w", err)
	}
	if err := page.Evaluate(ctx, "window.innerHeight", &viewport); err != nil {
		return fmt.Errorf("read viewport height: %w", err)
	}

	steps := int(total / StepSize)
	s.logger.Debug("Smooth scrolling",
		logger.Int("page_height", int(total)),
		logger.Int("viewport_height", int(viewport)),
		logger.Int("steps", steps))

	for i := 0; i < steps; i++ {
		if err := page.Evaluate(ctx, stepScript, nil); err != nil {
			return fmt.Errorf("scroll step %d: %w", i, err)
		}
		if err := s.pause(ctx, StepPause); err != nil {
			return err
		}
		if progressMilestone(i, steps) {
			s.logger.Info("Scroll progress",
				logger.Int("percent", int(float64(i)/float64(steps)*100)),
				logger.Int("offset", i*StepSize))
		}
	}

	if err := page.Evaluate(ctx, "window.scrollTo(0, document.body.scrollHeight)", nil); err != nil {
		return fmt.Errorf("scroll to bottom: %w", err)
	}
	if err := page.Evaluate(ctx, revealScript, nil); err != nil {
		return fmt.Errorf("force reveal animations: %w", err)
	}
	return s.pause(ctx, FinalPause)
}

// progressMilestone reports whether step i of steps crosses a progress
// boundary worth logging.
func progressMilestone(i, steps int) bool {
	if steps <= 0 {
		return false
	}
	progress := float64(i) / float64(steps) * 100
	return math.Mod(progress, progressEvery) < 100/float64(steps)
}

var stepScript = fmt.Sprintf(`window.scrollBy(0, %d);
window.dispatchEvent(new Event('scroll'));`, StepSize)

const revealScript = `(() => {
  document.querySelectorAll('[data-aos]').forEach(el => {
    el.classList.add('aos-animate');
    el.style.opacity = '1';
    el.style.transform = 'none';
  });
  if (typeof ScrollTrigger !== 'undefined') {
    ScrollTrigger.getAll().forEach(st => st.refresh());
  }
  document.querySelectorAll('[class*="fade"], [class*="slide"], [class*="animate"]').forEach(el => {
    if (el.style.opacity === '0' || el.style.opacity === '') {
      el.style.opacity = '1';
    }
    if (el.style.visibility === 'hidden') {
      el.style.visibility = 'visible';
    }
  });
  window.dispatchEvent(new Event('scroll'));
  window.dispatchEvent(new Event('resize'));
})()`
