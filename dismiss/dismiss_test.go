package dismiss_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multishot/dismiss"
)

type element struct {
	visible  bool
	clickErr error
}

type fakeTarget struct {
	matches  map[string][]element
	countErr map[string]error
	clicks   []string
}

func key(css, text string) string {
	return dismiss.Rule{CSS: css, Text: text}.String()
}

func (f *fakeTarget) Count(_ context.Context, css, text string) (int, error) {
	if err := f.countErr[key(css, text)]; err != nil {
		return 0, err
	}
	return len(f.matches[key(css, text)]), nil
}

func (f *fakeTarget) Visible(_ context.Context, css, text string, index int, _ time.Duration) (bool, error) {
	return f.matches[key(css, text)][index].visible, nil
}

func (f *fakeTarget) Click(_ context.Context, css, text string, index int, _ time.Duration) error {
	el := f.matches[key(css, text)][index]
	if el.clickErr != nil {
		return el.clickErr
	}
	f.clicks = append(f.clicks, key(css, text))
	return nil
}

type pauses struct {
	got []time.Duration
}

func (p *pauses) record(_ context.Context, d time.Duration) error {
	p.got = append(p.got, d)
	return nil
}

func TestDismiss_NoMatches(t *testing.T) {
	t.Parallel()

	p := &pauses{}
	engine := dismiss.New(nil, dismiss.WithPause(p.record))
	target := &fakeTarget{matches: map[string][]element{}}

	assert.Equal(t, 0, engine.Dismiss(context.Background(), target))
	assert.Empty(t, target.clicks)
	assert.Empty(t, p.got)
}

func TestDismiss_ClicksFirstVisibleCandidatePerRule(t *testing.T) {
	t.Parallel()

	rules := []dismiss.Rule{
		{CSS: "button", Text: "Accept"},
		{CSS: "#onetrust-accept-btn-handler"},
		{CSS: ".never-there"},
	}
	target := &fakeTarget{matches: map[string][]element{
		key("button", "Accept"): {{visible: false}, {visible: true}, {visible: true}},
		key("#onetrust-accept-btn-handler", ""): {{visible: true}},
	}}
	p := &pauses{}
	engine := dismiss.New(nil, dismiss.WithRules(rules), dismiss.WithPause(p.record))

	closed := engine.Dismiss(context.Background(), target)

	assert.Equal(t, 2, closed)
	assert.Equal(t, []string{`button:has-text("Accept")`, "#onetrust-accept-btn-handler"}, target.clicks)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond, time.Second}, p.got)
}

func TestDismiss_SwallowsCandidateErrors(t *testing.T) {
	t.Parallel()

	rules := []dismiss.Rule{
		{CSS: ".broken"},
		{CSS: ".flaky"},
		{CSS: ".ok"},
	}
	target := &fakeTarget{
		matches: map[string][]element{
			".flaky": {{visible: true, clickErr: errors.New("detached")}, {visible: true}},
			".ok":    {{visible: true}},
		},
		countErr: map[string]error{".broken": errors.New("bad selector")},
	}
	engine := dismiss.New(nil, dismiss.WithRules(rules), dismiss.WithPause((&pauses{}).record))

	assert.Equal(t, 2, engine.Dismiss(context.Background(), target))
	assert.Equal(t, []string{".flaky", ".ok"}, target.clicks)
}

func TestDismiss_StopsWhenContextDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	target := &fakeTarget{matches: map[string][]element{".x": {{visible: true}}}}
	engine := dismiss.New(nil, dismiss.WithRules([]dismiss.Rule{{CSS: ".x"}}))

	assert.Equal(t, 0, engine.Dismiss(ctx, target))
	assert.Empty(t, target.clicks)
}

func TestRuleString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `button:has-text("J'accepte")`, dismiss.Rule{CSS: "button", Text: "J'accepte"}.String())
	assert.Equal(t, ".cc-dismiss", dismiss.Rule{CSS: ".cc-dismiss"}.String())
}

func TestDefaultRules(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, dismiss.DefaultRules)
	assert.Equal(t, dismiss.Rule{CSS: "button", Text: "Aceptar"}, dismiss.DefaultRules[0])
	assert.Equal(t, `div[role="alertdialog"] button:first-child`, dismiss.DefaultRules[len(dismiss.DefaultRules)-1].CSS)

	seen := make(map[string]bool)
	for _, r := range dismiss.DefaultRules {
		assert.NotEmpty(t, r.CSS)
		s := r.String()
		assert.False(t, seen[s], "duplicate rule %s", s)
		seen[s] = true
	}
}
