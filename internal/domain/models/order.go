package models

import "frontend/internal/domain"

// Order is cargo a driver accepted to carry.
type Order struct {
	ID          string  `json:"id"`
	RequestID   string  `json:"deliveryRequestId,omitempty"`
	SenderID    string  `json:"senderId"`
	DriverID    string  `json:"driverId"`
	Title       string  `json:"title"`
	FromAddress string  `json:"fromAddress"`
	ToAddress   string  `json:"toAddress"`
	WeightKg    float64 `json:"weightKg,omitempty"`
	Price       float64 `json:"price,omitempty"`
	IsAccepted  bool    `json:"isAccepted"`
	IsPickedUp  bool    `json:"isPickedUp"`
	IsDelivered bool    `json:"isDelivered"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

func (o Order) RecordID() string { return o.ID }

func (o Order) Actions() []domain.Action {
	switch {
	case o.IsAccepted && !o.IsPickedUp:
		return []domain.Action{domain.ActionPickup}
	case o.IsPickedUp && !o.IsDelivered:
		return []domain.Action{domain.ActionDeliver}
	}
	return nil
}

// Status summarizes the order flags for display.
func (o Order) Status() string {
	switch {
	case o.IsDelivered:
		return "delivered"
	case o.IsPickedUp:
		return "in_transit"
	case o.IsAccepted:
		return "accepted"
	default:
		return "pending"
	}
}

// DeliveryRequest is a sender's posted request to have cargo carried.
type DeliveryRequest struct {
	ID          string  `json:"id"`
	SenderID    string  `json:"senderId"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	FromAddress string  `json:"fromAddress"`
	ToAddress   string  `json:"toAddress"`
	PickupDate  string  `json:"pickupDate"`
	WeightKg    float64 `json:"weightKg"`
	Price       float64 `json:"price"`
	CargoPhoto  string  `json:"cargoPhoto,omitempty"`
	IsMatched   bool    `json:"isMatched"`
}

func (r DeliveryRequest) RecordID() string { return r.ID }

func (r DeliveryRequest) Actions() []domain.Action { return nil }
