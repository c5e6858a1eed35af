package models

import "time"

// Student is a student record. UserID links the record to the user account
// that registered it; the link is nullable because legacy rows may predate
// the association.
type Student struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	RollNumber  string    `json:"roll_number"`
	Class       string    `json:"class"`
	Section     string    `json:"section"`
	DateOfBirth string    `json:"date_of_birth"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
}
