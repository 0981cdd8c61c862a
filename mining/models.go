// Package mining defines the timed session and quick-mine records.
package mining

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/artgap/treasury/id"
)

// Session is one user's timed mining session. At most one session exists
// per user; a new session cannot start while End is in the future.
type Session struct {
	ID      id.SessionID `json:"id"`
	UserID  string       `json:"user_id"`
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
	Claimed bool         `json:"claimed"`
}

// ActiveAt reports whether the session is still running at now.
func (s *Session) ActiveAt(now time.Time) bool {
	return s != nil && s.End.After(now)
}

// Status is the read-only view of a user's session state.
type Status struct {
	Active    bool          `json:"active"`
	Start     time.Time     `json:"start,omitempty"`
	End       time.Time     `json:"end,omitempty"`
	Remaining time.Duration `json:"remaining"`
	Claimed   bool          `json:"claimed"`
}

// Event records a reward grant, either from the quick-mine path or a
// session claim.
type Event struct {
	ID        id.MiningEventID `json:"id"`
	UserID    string           `json:"user_id"`
	Reward    decimal.Decimal  `json:"reward"`
	Source    string           `json:"source"` // "mine" or "claim"
	CreatedAt time.Time        `json:"created_at"`
}
