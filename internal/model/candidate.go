package model

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is a department member taking an exam.
type Candidate struct {
	ID           uuid.UUID `json:"id"`
	Callsign     string    `json:"callsign"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	// Privileged candidates (command staff) bypass the one-time access
	// token gate and start their exam immediately.
	Privileged bool      `json:"privileged"`
	CreatedAt  time.Time `json:"created_at"`
}

// LoginRequest is the payload for candidate login.
type LoginRequest struct {
	Callsign string `json:"callsign" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}
