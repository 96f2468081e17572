package model

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
)

// Participant represents a competitor account.
type Participant struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	EnrollmentNumber *string   `json:"enrollment_number,omitempty"`
	Role             Role      `json:"role"`
	PasswordHash     string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// LoginRequest is the payload for participant and organizer login.
// Identifier is an email address or a college enrollment number.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required,min=3,max=255"`
	Password   string `json:"password" binding:"required,min=6,max=72"`
}

// RegisterRequest is the payload for participant signup.
type RegisterRequest struct {
	Name             string `json:"name" binding:"required,min=2,max=120"`
	Email            string `json:"email" binding:"required,email,max=255"`
	EnrollmentNumber string `json:"enrollment_number" binding:"omitempty,min=4,max=40"`
	Password         string `json:"password" binding:"required,min=6,max=72"`
}
