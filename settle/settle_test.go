package settle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multishot/logger"
)

type fakePage struct {
	height   float64
	viewport float64
	scripts  []string
	failOn   string
}

func (f *fakePage) Evaluate(_ context.Context, script string, out any) error {
	f.scripts = append(f.scripts, script)
	if f.failOn != "" && strings.Contains(script, f.failOn) {
		return errors.New("evaluation failed")
	}
	if p, ok := out.(*float64); ok {
		switch script {
		case "document.body.scrollHeight":
			*p = f.height
		case "window.innerHeight":
			*p = f.viewport
		}
	}
	return nil
}

// recordingLogger keeps "level: msg" for every entry.
type recordingLogger struct {
	entries *[]string
}

func (l recordingLogger) add(level, msg string) { *l.entries = append(*l.entries, level+": "+msg) }

func (l recordingLogger) Debug(msg string, _ ...logger.Field) { l.add("debug", msg) }
func (l recordingLogger) Info(msg string, _ ...logger.Field) { l.add("info", msg) }
func (l recordingLogger) Warn(msg string, _ ...logger.Field) { l.add("warn", msg) }
func (l recordingLogger) Error(msg string, _ ...logger.Field) { l.add("error", msg) }
func (l recordingLogger) With(...logger.Field) logger.Logger { return l }
func (l recordingLogger) Sync() error { return nil }

func newTestScroller() (*Scroller, *[]time.Duration) {
	var pauses []time.Duration
	s := NewScroller(nil)
	s.pause = func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}
	return s, &pauses
}

func TestWait(t *testing.T) {
	t.Parallel()

	require.NoError(t, Wait(context.Background(), 0))
	require.NoError(t, Wait(context.Background(), 5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := Wait(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestScroll_StepsFollowPageHeight(t *testing.T) {
	t.Parallel()

	page := &fakePage{height: 850, viewport: 600}
	s, pauses := newTestScroller()

	require.NoError(t, s.Scroll(context.Background(), page))

	steps := 0
	for _, script := range page.scripts {
		if script == stepScript {
			steps++
		}
	}
	assert.Equal(t, 10, steps)
	require.Len(t, *pauses, 11)
	assert.Equal(t, StepPause, (*pauses)[0])
	assert.Equal(t, FinalPause, (*pauses)[10])

	n := len(page.scripts)
	assert.Equal(t, "window.scrollTo(0, document.body.scrollHeight)", page.scripts[n-2])
	assert.Equal(t, revealScript, page.scripts[n-1])
}

func TestScroll_ShortPageStillReveals(t *testing.T) {
	t.Parallel()

	page := &fakePage{height: 50, viewport: 800}
	s, pauses := newTestScroller()

	require.NoError(t, s.Scroll(context.Background(), page))
	assert.Equal(t, []time.Duration{FinalPause}, *pauses)
	assert.Contains(t, page.scripts, revealScript)
}

func TestScroll_PropagatesEvaluateError(t *testing.T) {
	t.Parallel()

	page := &fakePage{height: 400, viewport: 400, failOn: "ScrollTrigger"}
	s, _ := newTestScroller()

	err := s.Scroll(context.Background(), page)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "force reveal animations")
}

func TestScroll_StopsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	page := &fakePage{height: 8000, viewport: 800}
	s := NewScroller(nil)

	err := s.Scroll(ctx, page)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, len(page.scripts), 5)
}

func TestProgressMilestone(t *testing.T) {
	t.Parallel()

	var hits []int
	for i := 0; i < 10; i++ {
		if progressMilestone(i, 10) {
			hits = append(hits, i)
		}
	}
	assert.Equal(t, []int{0, 2, 4, 6, 8}, hits)
	assert.False(t, progressMilestone(0, 0))
}

func TestScroll_ReportsProgressAtInfo(t *testing.T) {
	t.Parallel()

	var entries []string
	s := NewScroller(recordingLogger{entries: &entries})
	s.pause = func(context.Context, time.Duration) error { return nil }

	require.NoError(t, s.Scroll(context.Background(), &fakePage{height: 850, viewport: 600}))

	progress := 0
	for _, e := range entries {
		if e == "info: Scroll progress" {
			progress++
		}
	}
	assert.Equal(t, 5, progress)
}
