package models

import "github.com/google/uuid"

// Interest is a category tag shared by user profiles and meeting types.
type Interest struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
