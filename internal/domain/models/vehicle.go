package models

import "frontend/internal/domain"

// Vehicle is a driver's registered vehicle. Admins verify new registrations.
type Vehicle struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"ownerId"`
	Type         string  `json:"type"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	LicensePlate string  `json:"licensePlate"`
	Color        string  `json:"color,omitempty"`
	Year         int     `json:"year,omitempty"`
	CapacityKg   float64 `json:"capacityKg,omitempty"`
	ImageFront   string  `json:"imageFront,omitempty"`
	ImageBack    string  `json:"imageBack,omitempty"`
	IsVerified   bool    `json:"isVerified"`
	IsRejected   bool    `json:"isRejected"`
}

func (v Vehicle) RecordID() string { return v.ID }

func (v Vehicle) Actions() []domain.Action {
	if v.IsVerified || v.IsRejected {
		return nil
	}
	return []domain.Action{domain.ActionApprove, domain.ActionReject}
}
