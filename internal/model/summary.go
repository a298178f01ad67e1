package model

// AccountSummary is the derived per-account row returned by the listing
// endpoint. Pointer fields render as JSON null when the account has no
// saved configuration or no heartbeat history.
type AccountSummary struct {
	Account     string  `json:"account"`
	Enabled     bool    `json:"enabled"`
	FarmEnabled bool    `json:"farmEnabled"`
	IntervalMin *int    `json:"intervalMin"`
	IntervalMax *int    `json:"intervalMax"`
	UpdatedAt   *string `json:"updatedAt"`
	Online      bool    `json:"online"`
	LastSeen    *string `json:"lastSeen"`
}
