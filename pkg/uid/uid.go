// Package uid generates the identifiers this system puts on the wire:
// request ids for log correlation and agent installation ids.
package uid

import "github.com/google/uuid"

// New generates a random identifier.
func New() string {
	return uuid.New().String()
}

// NewClientID generates an agent installation id, carrying the same
// prefix the userscript gives the ids it generates for itself.
func NewClientID() string {
	return "client_" + uuid.New().String()
}
