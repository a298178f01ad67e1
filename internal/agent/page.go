package agent

import "github.com/rs/zerolog"

// Page abstracts the host page the session pokes at. The real page is a
// third-party game UI rendered asynchronously, so all three probes can
// change answers between calls.
type Page interface {
	// Present reports whether an element matching the selector exists.
	Present(selector string) bool

	// Clickable reports whether the element exists, is not disabled and
	// carries no disabled/inactive class.
	Clickable(selector string) bool

	// Click fires a single click on the element.
	Click(selector string) error
}

// Selectors identifies the controls of one farm cycle in the host page.
type Selectors struct {
	OpenOverview    string
	OverviewWrapper string
	SelectAll       string
	Claim           string
}

// DefaultSelectors returns the selector set for the Grepolis captain UI.
func DefaultSelectors() Selectors {
	return Selectors{
		OpenOverview:    "#overviews_link_hover_menu > div.box.middle.left > div > div > ul > li.subsection.captain.enabled > ul > li.farm_town_overview > a",
		OverviewWrapper: "#fto_town_wrapper",
		SelectAll:       "#fto_town_wrapper > div > div.game_header.bold > span.checkbox_wrapper > a",
		Claim:           "#fto_claim_button > div.caption.js-caption > span",
	}
}

// DryRunPage is a Page that cooperates with everything and logs each
// interaction. Used by the shipped agent binary to verify scheduling and
// heartbeats against a live panel without a browser.
type DryRunPage struct {
	Log zerolog.Logger
}

// Present implements Page.
func (p DryRunPage) Present(selector string) bool { return true }

// Clickable implements Page.
func (p DryRunPage) Clickable(selector string) bool { return true }

// Click implements Page.
func (p DryRunPage) Click(selector string) error {
	p.Log.Info().Str("selector", selector).Msg("dry-run click")
	return nil
}
