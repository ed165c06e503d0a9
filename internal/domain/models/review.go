package models

import "frontend/internal/domain"

// Review is feedback one party left for another after a delivery.
type Review struct {
	ID         string `json:"id"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName,omitempty"`
	TargetID   string `json:"targetId"`
	Rating     int    `json:"rating"`
	Text       string `json:"text,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

func (r Review) RecordID() string { return r.ID }

func (r Review) Actions() []domain.Action { return nil }

// Article is a news entry.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	Body        string `json:"body,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

func (a Article) RecordID() string { return a.ID }

func (a Article) Actions() []domain.Action { return nil }

// Message is a note exchanged between a sender and a driver.
type Message struct {
	ID        string `json:"id"`
	FromID    string `json:"fromId"`
	ToID      string `json:"toId"`
	OrderID   string `json:"orderId,omitempty"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt,omitempty"`
	IsRead    bool   `json:"isRead"`
}

func (m Message) RecordID() string { return m.ID }

func (m Message) Actions() []domain.Action { return nil }
