package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RolePlayer UserRole = "player"
)

// User is a registered player. ParticipantID links the player to their participant
// identity in the tournaments service; it is nil until the player first enrolls.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email,omitempty"`
	Role          UserRole  `json:"role"`
	ParticipantID *string   `json:"participant_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
