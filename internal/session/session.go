// Package session keeps per-user conversational state: where the user is in
// the menus, their recommendation answers and their in-progress setup answers.
package session

import (
	"sync"
	"time"
)

// Preferences are the recommendation questionnaire answers.
type Preferences struct {
	Usage string
}

// SetupAnswers accumulate across the three setup questions.
type SetupAnswers struct {
	Genre      string
	HandSize   string
	SwitchType string
}

// Session is one user's mutable context. It is created on first use and
// mutated in place by the navigator; callers serialise access through
// Store.Do.
type Session struct {
	ID              string
	CurrentCategory string
	CurrentBrand    string
	// Preferences is nil until the usage question is answered.
	Preferences *Preferences
	// Setup is nil until the genre question is answered.
	Setup *SetupAnswers
	// State names the menu last shown to the user.
	State   string
	Created time.Time
	Updated time.Time

	mu sync.Mutex
}

// New creates an empty session.
func New(id string) *Session {
	now := time.Now()
	return &Session{ID: id, Created: now, Updated: now}
}

// Touch marks the session as updated.
func (s *Session) Touch() { s.Updated = time.Now() }

// Snapshot is a copy of a session's fields, safe to read without locking.
type Snapshot struct {
	ID              string
	CurrentCategory string
	CurrentBrand    string
	Preferences     *Preferences
	Setup           *SetupAnswers
	State           string
	Updated         time.Time
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:              s.ID,
		CurrentCategory: s.CurrentCategory,
		CurrentBrand:    s.CurrentBrand,
		State:           s.State,
		Updated:         s.Updated,
	}
	if s.Preferences != nil {
		p := *s.Preferences
		snap.Preferences = &p
	}
	if s.Setup != nil {
		a := *s.Setup
		snap.Setup = &a
	}
	return snap
}
