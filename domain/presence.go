package domain

import "time"

// PresenceState is one member's ephemeral state in a room. It is never
// persisted; the latest At wins when two updates race.
type PresenceState struct {
	UserID string    `json:"user_id"`
	Online bool      `json:"online"`
	Typing bool      `json:"typing"`
	At     time.Time `json:"at"`
}
