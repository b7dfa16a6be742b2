package models

import (
	"encoding/json"
	"time"
)

// Role stores a named permission map checked by the admin middleware.
// Permissions is JSON of the form {"tickets": ["read", "update"], ...}.
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:32;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Permissions string    `gorm:"type:text" json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Role) TableName() string {
	return "roles"
}

// HasPermission reports whether the role grants action on resource.
// The wildcard "*" matches any resource or action.
func (r *Role) HasPermission(resource, action string) bool {
	if r.Permissions == "" {
		return false
	}
	var perms map[string][]string
	if err := json.Unmarshal([]byte(r.Permissions), &perms); err != nil {
		return false
	}
	for _, res := range []string{resource, "*"} {
		for _, a := range perms[res] {
			if a == action || a == "*" {
				return true
			}
		}
	}
	return false
}
