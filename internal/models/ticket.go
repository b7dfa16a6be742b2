package models

import (
	"time"

	"gorm.io/gorm"
)

type Ticket struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	Subject      string         `gorm:"size:255;not null" json:"subject"`
	Description  string         `gorm:"type:text" json:"description"`
	Status       string         `gorm:"size:20;not null;index;default:'open'" json:"status"` // open | in_progress | resolved | closed
	Priority     string         `gorm:"size:20;not null;default:'medium'" json:"priority"`
	AssignedToID *uint          `gorm:"index" json:"assigned_to_id"`
	ResolvedAt   *time.Time     `json:"resolved_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	User       User  `gorm:"foreignKey:UserID" json:"-"`
	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"-"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// TicketActivity is an append-only audit row for status/priority/assignment changes.
type TicketActivity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TicketID  uint      `gorm:"not null;index" json:"ticket_id"`
	ActorID   uint      `gorm:"not null" json:"actor_id"`
	Action    string    `gorm:"size:32;not null" json:"action"` // status_change | priority_change | assigned | comment
	FromValue string    `gorm:"size:64" json:"from_value"`
	ToValue   string    `gorm:"size:64" json:"to_value"`
	Note      string    `gorm:"size:512" json:"note"`
	CreatedAt time.Time `json:"created_at"`

	Ticket Ticket `gorm:"foreignKey:TicketID" json:"-"`
}

func (TicketActivity) TableName() string {
	return "ticket_activities"
}
