package models

import "frontend/internal/domain"

// Trip is a driver's announced journey that senders can attach offers to.
type Trip struct {
	ID            string  `json:"id"`
	DriverID      string  `json:"driverId"`
	VehicleID     string  `json:"vehicleId,omitempty"`
	FromCity      string  `json:"fromCity"`
	ToCity        string  `json:"toCity"`
	DepartureDate string  `json:"departureDate"`
	FreeCapacity  float64 `json:"freeCapacityKg,omitempty"`
	IsStarted     bool    `json:"isStarted"`
	IsCompleted   bool    `json:"isCompleted"`
}

func (t Trip) RecordID() string { return t.ID }

func (t Trip) Actions() []domain.Action {
	switch {
	case !t.IsStarted:
		return []domain.Action{domain.ActionStart}
	case !t.IsCompleted:
		return []domain.Action{domain.ActionComplete}
	}
	return nil
}
