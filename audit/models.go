// Package audit defines the append-only trail written alongside every
// mutating engine operation.
package audit

import (
	"time"

	"github.com/artgap/treasury/id"
)

// Entry is one audit record. Entries are append-only and never mutated.
type Entry struct {
	ID      id.AuditID     `json:"id"`
	Type    string         `json:"type"`
	UserID  string         `json:"user_id,omitempty"`
	Context map[string]any `json:"context,omitempty"`
	TS      time.Time      `json:"ts"`
}

// New builds an entry stamped with the current time.
func New(typ, userID string, context map[string]any) *Entry {
	return &Entry{
		ID:      id.NewAuditID(),
		Type:    typ,
		UserID:  userID,
		Context: context,
		TS:      time.Now().UTC(),
	}
}

// ListOpts filters audit listings.
type ListOpts struct {
	Type   string
	UserID string
	Limit  int
}
