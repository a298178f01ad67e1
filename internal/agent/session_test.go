package agent

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gp-captain-panel/internal/model"
)

// fakeClock drives the session on virtual time: Sleep advances Now, so
// poll loops terminate instantly without real waiting.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// scriptedPage answers probes per selector and counts clicks.
type scriptedPage struct {
	mu        sync.Mutex
	present   map[string]bool
	clickable map[string]bool
	clicks    map[string]int

	// onClick runs after each click, letting a test mutate page state in
	// response (e.g. select-all makes the claim button clickable)
	onClick func(p *scriptedPage, selector string)
}

func newScriptedPage() *scriptedPage {
	return &scriptedPage{
		present:   map[string]bool{},
		clickable: map[string]bool{},
		clicks:    map[string]int{},
	}
}

func (p *scriptedPage) Present(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.present[selector]
}

func (p *scriptedPage) Clickable(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clickable[selector]
}

func (p *scriptedPage) Click(selector string) error {
	p.mu.Lock()
	p.clicks[selector]++
	p.mu.Unlock()
	if p.onClick != nil {
		p.onClick(p, selector)
	}
	return nil
}

func (p *scriptedPage) set(selector string, present, clickable bool) {
	p.mu.Lock()
	p.present[selector] = present
	p.clickable[selector] = clickable
	p.mu.Unlock()
}

func (p *scriptedPage) clickCount(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clicks[selector]
}

func (p *scriptedPage) totalClicks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.clicks {
		total += n
	}
	return total
}

func staticConfig(cfg *model.BotConfig) ConfigSource {
	return ConfigSourceFunc(func(ctx context.Context) (*model.BotConfig, error) {
		return cfg, nil
	})
}

func newTestSession(page Page, source ConfigSource, clock *fakeClock) *Session {
	return NewSession(page, source, nil, Options{
		Account: "br14_alpha",
		Rand:    rand.New(rand.NewSource(1)),
		Now:     clock.Now,
		Sleep:   clock.Sleep,
		Logger:  zerolog.Nop(),
	})
}

func TestNextDelayStaysInConfiguredWindow(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(newScriptedPage(), staticConfig(model.DefaultConfig()), clock)

	cfg := model.DefaultConfig()
	cfg.Farm.IntervalMin = 300
	cfg.Farm.IntervalMax = 343
	s.cfg = cfg

	for i := 0; i < 1000; i++ {
		d := s.NextDelay()
		secs := int(d / time.Second)
		require.GreaterOrEqual(t, secs, 300, "draw %d below window", i)
		require.LessOrEqual(t, secs, 343, "draw %d above window", i)
	}
}

func TestNextDelayClampsMaxBelowMin(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(newScriptedPage(), staticConfig(model.DefaultConfig()), clock)

	cfg := model.DefaultConfig()
	cfg.Farm.IntervalMin = 500
	cfg.Farm.IntervalMax = 100
	s.cfg = cfg

	for i := 0; i < 100; i++ {
		assert.Equal(t, 500*time.Second, s.NextDelay())
	}
}

func TestNextDelayDefaultsWithoutConfig(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(newScriptedPage(), staticConfig(model.DefaultConfig()), clock)

	assert.Equal(t, 600*time.Second, s.NextDelay())
}

func TestRunCycleDisabledTouchesNothing(t *testing.T) {
	page := newScriptedPage()
	clock := newFakeClock()

	cfg := model.DefaultConfig()
	cfg.Enabled = false
	s := newTestSession(page, staticConfig(cfg), clock)

	s.RunCycle(context.Background())
	assert.Zero(t, page.totalClicks())

	// farm off behaves the same with the master switch on
	cfg2 := model.DefaultConfig()
	cfg2.Farm.Enabled = false
	s = newTestSession(page, staticConfig(cfg2), clock)

	s.RunCycle(context.Background())
	assert.Zero(t, page.totalClicks())
}

func TestRunCycleHappyPath(t *testing.T) {
	page := newScriptedPage()
	clock := newFakeClock()
	sel := DefaultSelectors()

	page.set(sel.OpenOverview, true, true)
	page.onClick = func(p *scriptedPage, selector string) {
		switch selector {
		case sel.OpenOverview:
			p.set(sel.OverviewWrapper, true, false)
		case sel.SelectAll:
			p.set(sel.Claim, true, true)
		}
	}
	page.set(sel.SelectAll, true, true)

	s := newTestSession(page, staticConfig(model.DefaultConfig()), clock)
	s.RunCycle(context.Background())

	assert.Equal(t, 1, page.clickCount(sel.OpenOverview))
	assert.Equal(t, 1, page.clickCount(sel.SelectAll))
	assert.Equal(t, 1, page.clickCount(sel.Claim))
}

func TestRunCycleSkipsWhenOverviewNeverOpens(t *testing.T) {
	page := newScriptedPage()
	clock := newFakeClock()
	sel := DefaultSelectors()

	// overview link clicks fine but the wrapper never appears
	page.set(sel.OpenOverview, true, true)
	page.set(sel.SelectAll, true, true)

	s := newTestSession(page, staticConfig(model.DefaultConfig()), clock)
	start := clock.Now()
	s.RunCycle(context.Background())

	assert.Equal(t, 1, page.clickCount(sel.OpenOverview))
	assert.Zero(t, page.clickCount(sel.SelectAll), "select all must not run without the overview")
	assert.Zero(t, page.clickCount(sel.Claim))
	// bounded wait: the poll loop gave up around the overview timeout
	assert.GreaterOrEqual(t, clock.Now().Sub(start), 5*time.Second)
}

func TestRunCycleRetriesSelectAllExactlyOnce(t *testing.T) {
	page := newScriptedPage()
	clock := newFakeClock()
	sel := DefaultSelectors()

	page.set(sel.OpenOverview, true, true)
	page.onClick = func(p *scriptedPage, selector string) {
		if selector == sel.OpenOverview {
			p.set(sel.OverviewWrapper, true, false)
		}
	}
	page.set(sel.SelectAll, true, true)
	// claim never becomes clickable

	s := newTestSession(page, staticConfig(model.DefaultConfig()), clock)
	s.RunCycle(context.Background())

	assert.Equal(t, 2, page.clickCount(sel.SelectAll), "one initial attempt plus exactly one retry")
	assert.Zero(t, page.clickCount(sel.Claim))
}

func TestRunCycleRetrySucceeds(t *testing.T) {
	page := newScriptedPage()
	clock := newFakeClock()
	sel := DefaultSelectors()

	page.set(sel.OpenOverview, true, true)
	selectAllClicks := 0
	page.onClick = func(p *scriptedPage, selector string) {
		switch selector {
		case sel.OpenOverview:
			p.set(sel.OverviewWrapper, true, false)
		case sel.SelectAll:
			// the first selection is eaten; the second takes
			selectAllClicks++
			if selectAllClicks == 2 {
				p.set(sel.Claim, true, true)
			}
		}
	}
	page.set(sel.SelectAll, true, true)

	s := newTestSession(page, staticConfig(model.DefaultConfig()), clock)
	s.RunCycle(context.Background())

	assert.Equal(t, 2, page.clickCount(sel.SelectAll))
	assert.Equal(t, 1, page.clickCount(sel.Claim))
}

func TestRunCycleKeepsPreviousConfigOnFetchError(t *testing.T) {
	page := newScriptedPage()
	clock := newFakeClock()

	calls := 0
	source := ConfigSourceFunc(func(ctx context.Context) (*model.BotConfig, error) {
		calls++
		if calls == 1 {
			cfg := model.DefaultConfig()
			cfg.Enabled = false
			return cfg, nil
		}
		return nil, context.DeadlineExceeded
	})

	s := newTestSession(page, source, clock)

	s.RunCycle(context.Background())
	require.NotNil(t, s.cfg)
	assert.False(t, s.cfg.Enabled)

	// fetch fails; the previously fetched config still governs the cycle
	s.RunCycle(context.Background())
	assert.False(t, s.cfg.Enabled)
	assert.Zero(t, page.totalClicks())
}

func TestRunCycleNoConfigAtAllSkips(t *testing.T) {
	page := newScriptedPage()
	clock := newFakeClock()
	source := ConfigSourceFunc(func(ctx context.Context) (*model.BotConfig, error) {
		return nil, context.DeadlineExceeded
	})

	s := newTestSession(page, source, clock)
	s.RunCycle(context.Background())
	assert.Zero(t, page.totalClicks())
}

func TestRunFetchesConfigBeforeFirstSchedule(t *testing.T) {
	page := newScriptedPage()
	clock := newFakeClock()
	start := clock.Now()

	cfg := model.DefaultConfig()
	cfg.Enabled = false // cycles are no-ops; scheduling is what matters here
	cfg.Farm.IntervalMin = 1
	cfg.Farm.IntervalMax = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetches := 0
	var firstCycleAt time.Time
	source := ConfigSourceFunc(func(ctx context.Context) (*model.BotConfig, error) {
		fetches++
		// fetch 1 happens before any delay is drawn; fetch 2 opens the
		// first cycle
		if fetches == 2 {
			firstCycleAt = clock.Now()
			cancel()
		}
		return cfg, nil
	})

	s := newTestSession(page, source, clock)
	err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.GreaterOrEqual(t, fetches, 2)
	assert.Equal(t, time.Second, firstCycleAt.Sub(start),
		"first cycle must be scheduled from the stored window, not the fallback")
}

func TestNewSessionGeneratesClientID(t *testing.T) {
	s := NewSession(newScriptedPage(), staticConfig(model.DefaultConfig()), nil, Options{
		Account: "br14_alpha",
		Logger:  zerolog.Nop(),
	})
	assert.Regexp(t, `^client_`, s.ClientID())

	s2 := NewSession(newScriptedPage(), staticConfig(model.DefaultConfig()), nil, Options{
		Account:  "br14_alpha",
		ClientID: "client_fixed",
		Logger:   zerolog.Nop(),
	})
	assert.Equal(t, "client_fixed", s2.ClientID())
}
