package models

import "frontend/internal/domain"

const (
	OfferPending  = "pending"
	OfferAccepted = "accepted"
	OfferDeclined = "declined"
)

// Offer is a sender's proposal to ship a delivery request on a trip.
type Offer struct {
	ID        string  `json:"id"`
	TripID    string  `json:"tripId"`
	RequestID string  `json:"deliveryRequestId"`
	SenderID  string  `json:"senderId"`
	Price     float64 `json:"price"`
	Comment   string  `json:"comment,omitempty"`
	Status    string  `json:"status"`
}

func (o Offer) RecordID() string { return o.ID }

func (o Offer) Actions() []domain.Action {
	if o.Status == "" || o.Status == OfferPending {
		return []domain.Action{domain.ActionAccept, domain.ActionDecline}
	}
	return nil
}
