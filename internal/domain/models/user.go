package models

import "frontend/internal/domain"

// User is a marketplace account as exposed by the API.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	Rating    float64  `json:"rating,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
}

func (u User) RecordID() string { return u.ID }

func (u User) Actions() []domain.Action { return nil }
