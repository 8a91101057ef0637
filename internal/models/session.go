package models

import "time"

// Session records which user is logged in. Only the user ID is kept; the
// user itself is resolved from the store on every use so password resets and
// deletions are never masked by a stale copy.
type Session struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
