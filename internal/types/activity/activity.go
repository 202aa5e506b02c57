package activity

import (
	"cloud.google.com/go/civil"
)

const (
	SourceLogged   = "logged"
	SourceProvider = "provider"
)

// ActivityHistoryEntry is one day a user was active according to some upstream origin.
type ActivityHistoryEntry struct {
	Date   civil.Date `json:"date"`
	Source string     `json:"source,omitempty"`
}
