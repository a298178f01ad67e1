package agent

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"gp-captain-panel/internal/model"
	"gp-captain-panel/pkg/uid"
)

// ConfigSource fetches the account's current configuration. The session
// calls it fresh at the start of every cycle; this is how dashboard
// edits take effect without restarting the agent.
type ConfigSource interface {
	Fetch(ctx context.Context) (*model.BotConfig, error)
}

// ConfigSourceFunc adapts a function to the ConfigSource interface.
type ConfigSourceFunc func(ctx context.Context) (*model.BotConfig, error)

// Fetch implements ConfigSource.
func (f ConfigSourceFunc) Fetch(ctx context.Context) (*model.BotConfig, error) { return f(ctx) }

// HeartbeatSender reports the session as alive to the presence tracker.
type HeartbeatSender interface {
	Send(ctx context.Context, account, clientID string) error
}

// HeartbeatFunc adapts a function to the HeartbeatSender interface.
type HeartbeatFunc func(ctx context.Context, account, clientID string) error

// Send implements HeartbeatSender.
func (f HeartbeatFunc) Send(ctx context.Context, account, clientID string) error {
	return f(ctx, account, clientID)
}

// Options configures a Session. Zero values take the defaults the
// original cycle ran with; the polling knobs exist so tests can run on
// virtual time.
type Options struct {
	Account  string
	ClientID string

	Selectors Selectors

	PollInterval      time.Duration // default 200ms
	ClickSettle       time.Duration // pause after a successful click, default 300ms
	OverviewTimeout   time.Duration // default 5s
	ClaimTimeout      time.Duration // default 4s
	HeartbeatInterval time.Duration // default model.HeartbeatInterval

	Rand  *rand.Rand
	Now   func() time.Time
	Sleep func(time.Duration)

	Logger zerolog.Logger
}

// Session owns one account's automation loop: timers, the last known
// configuration and the page handle all live here, never in package
// state, so whoever starts the loop can stop it.
type Session struct {
	page       Page
	source     ConfigSource
	heartbeats HeartbeatSender

	account  string
	clientID string
	sel      Selectors

	pollInterval      time.Duration
	clickSettle       time.Duration
	overviewTimeout   time.Duration
	claimTimeout      time.Duration
	heartbeatInterval time.Duration

	rng   *rand.Rand
	now   func() time.Time
	sleep func(time.Duration)
	log   zerolog.Logger

	// last successfully fetched config; kept across failed fetches
	cfg *model.BotConfig
}

// NewSession builds a session for one account. page and source are
// required; heartbeats may be nil to disable presence pings.
func NewSession(page Page, source ConfigSource, heartbeats HeartbeatSender, opts Options) *Session {
	if opts.Selectors == (Selectors{}) {
		opts.Selectors = DefaultSelectors()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 200 * time.Millisecond
	}
	if opts.ClickSettle <= 0 {
		opts.ClickSettle = 300 * time.Millisecond
	}
	if opts.OverviewTimeout <= 0 {
		opts.OverviewTimeout = 5 * time.Second
	}
	if opts.ClaimTimeout <= 0 {
		opts.ClaimTimeout = 4 * time.Second
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = model.HeartbeatInterval
	}
	if opts.ClientID == "" {
		opts.ClientID = uid.NewClientID()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	return &Session{
		page:              page,
		source:            source,
		heartbeats:        heartbeats,
		account:           opts.Account,
		clientID:          opts.ClientID,
		sel:               opts.Selectors,
		pollInterval:      opts.PollInterval,
		clickSettle:       opts.ClickSettle,
		overviewTimeout:   opts.OverviewTimeout,
		claimTimeout:      opts.ClaimTimeout,
		heartbeatInterval: opts.HeartbeatInterval,
		rng:               opts.Rand,
		now:               opts.Now,
		sleep:             opts.Sleep,
		log:               opts.Logger.With().Str("account", opts.Account).Logger(),
	}
}

// ClientID returns the installation id this session reports with.
func (s *Session) ClientID() string { return s.clientID }

// Run drives the loop until ctx is cancelled: an immediate heartbeat
// plus a fixed-interval heartbeat ticker, and farm cycles separated by
// randomized delays. Heartbeats run regardless of the enabled flags.
func (s *Session) Run(ctx context.Context) error {
	go s.heartbeatLoop(ctx)

	// The first schedule must already honor the account's configured
	// window, so load the config before drawing any delay.
	if cfg, err := s.source.Fetch(ctx); err != nil {
		s.log.Warn().Err(err).Msg("initial config fetch failed")
	} else {
		s.cfg = cfg
	}

	for {
		delay := s.NextDelay()
		s.log.Info().Dur("delay", delay).Msg("next cycle scheduled")

		if err := s.wait(ctx, delay); err != nil {
			return err
		}
		s.RunCycle(ctx)
	}
}

// wait blocks for d through the injected sleeper, returning early when
// ctx is cancelled. The sleeper runs in its own goroutine so a shutdown
// never has to ride out a full inter-cycle delay.
func (s *Session) wait(ctx context.Context, d time.Duration) error {
	done := make(chan struct{})
	go func() {
		s.sleep(d)
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (s *Session) heartbeatLoop(ctx context.Context) {
	if s.heartbeats == nil {
		return
	}

	send := func() {
		if err := s.heartbeats.Send(ctx, s.account, s.clientID); err != nil {
			s.log.Warn().Err(err).Msg("heartbeat failed")
		}
	}

	send()
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			send()
		}
	}
}

// NextDelay picks the delay before the next cycle: uniformly random in
// [interval_min, interval_max] seconds. A misconfigured max below min is
// clamped up to min. The jitter is deliberate; perfectly periodic cycles
// are what bot detection looks for.
func (s *Session) NextDelay() time.Duration {
	min, max := 600, 600
	if s.cfg != nil {
		if s.cfg.Farm.IntervalMin > 0 {
			min = s.cfg.Farm.IntervalMin
		}
		if s.cfg.Farm.IntervalMax > 0 {
			max = s.cfg.Farm.IntervalMax
		}
	}
	if max < min {
		max = min
	}

	secs := min + s.rng.Intn(max-min+1)
	return time.Duration(secs) * time.Second
}

// RunCycle performs one farm cycle. Every failure mode degrades to
// "skip this cycle"; the next one is always scheduled on the configured
// window, never on a backoff.
func (s *Session) RunCycle(ctx context.Context) {
	if cfg, err := s.source.Fetch(ctx); err != nil {
		// keep the previous config; without one the cycle runs disabled
		s.log.Warn().Err(err).Msg("config fetch failed, keeping previous config")
	} else {
		s.cfg = cfg
	}

	if s.cfg == nil || !s.cfg.Enabled {
		s.log.Info().Msg("bot disabled, skipping cycle")
		return
	}
	if !s.cfg.Farm.Enabled {
		s.log.Info().Msg("farm disabled, skipping cycle")
		return
	}

	s.log.Info().Msg("starting farm cycle")

	// fire-and-forget; readiness is judged by the wrapper appearing
	s.click(s.sel.OpenOverview, "open overview")

	if !s.waitPresent(s.sel.OverviewWrapper, s.overviewTimeout) {
		s.log.Warn().Msg("overview did not open, skipping cycle")
		return
	}

	s.click(s.sel.SelectAll, "select all")
	ready := s.waitClickable(s.sel.Claim, s.claimTimeout)

	if !ready {
		// the game sometimes eats the first selection; one retry only
		s.log.Info().Msg("claim not ready, retrying select all")
		s.click(s.sel.SelectAll, "select all (retry)")
		ready = s.waitClickable(s.sel.Claim, s.claimTimeout)
	}

	if !ready {
		s.log.Warn().Msg("claim never became ready, skipping cycle")
		return
	}

	// no verification after the click; the host page is trusted
	if s.click(s.sel.Claim, "claim") {
		s.log.Info().Msg("claim clicked")
	}
}

// click clicks the selector if it is currently clickable. Returns
// whether a click was actually issued.
func (s *Session) click(selector, label string) bool {
	if !s.page.Clickable(selector) {
		s.log.Debug().Str("label", label).Msg("element not clickable")
		return false
	}
	if err := s.page.Click(selector); err != nil {
		s.log.Warn().Err(err).Str("label", label).Msg("click failed")
		return false
	}
	s.log.Debug().Str("label", label).Msg("clicked")
	s.sleep(s.clickSettle)
	return true
}

// waitPresent polls until an element matching the selector exists or the
// timeout elapses, with a final probe after the deadline.
func (s *Session) waitPresent(selector string, timeout time.Duration) bool {
	deadline := s.now().Add(timeout)
	for s.now().Before(deadline) {
		if s.page.Present(selector) {
			return true
		}
		s.sleep(s.pollInterval)
	}
	return s.page.Present(selector)
}

// waitClickable polls until the selector is clickable or the timeout
// elapses. Unlike waitPresent there is no probe after the deadline: a
// claim button that arms this late belongs to the next cycle.
func (s *Session) waitClickable(selector string, timeout time.Duration) bool {
	deadline := s.now().Add(timeout)
	for s.now().Before(deadline) {
		if s.page.Clickable(selector) {
			return true
		}
		s.sleep(s.pollInterval)
	}
	return false
}
