package model

import "time"

const (
	// OnlineWindow is how long after its last heartbeat an account is
	// still reported online. Twice the heartbeat interval, so one missed
	// ping does not flap the status.
	OnlineWindow = 120 * time.Second

	// HeartbeatInterval is the cadence at which agents send liveness pings.
	HeartbeatInterval = 60 * time.Second
)

// PresenceRecord holds the last-seen timestamp for one installation.
type PresenceRecord struct {
	LastSeen time.Time `json:"last_seen"`
}

// OnlineStore is the persisted presence map: account key -> client id ->
// last-seen record. Multiple installations may report for one account.
type OnlineStore map[string]map[string]PresenceRecord

// Touch upserts the record for (account, clientID) at the given time.
func (s OnlineStore) Touch(account, clientID string, seen time.Time) {
	clients, ok := s[account]
	if !ok {
		clients = make(map[string]PresenceRecord)
		s[account] = clients
	}
	clients[clientID] = PresenceRecord{LastSeen: seen}
}

// Status reports whether the account has any installation seen within
// OnlineWindow of now, and the most recent last-seen across all of its
// installations regardless of freshness. lastSeen is nil if the account
// has never pinged.
func (s OnlineStore) Status(account string, now time.Time) (online bool, lastSeen *time.Time) {
	for _, rec := range s[account] {
		ts := rec.LastSeen
		if ts.IsZero() {
			continue
		}
		if lastSeen == nil || ts.After(*lastSeen) {
			t := ts
			lastSeen = &t
		}
		if now.Sub(ts) <= OnlineWindow {
			online = true
		}
	}
	return online, lastSeen
}
