package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	support := &Role{Permissions: `{"tickets":["read","update","assign"]}`}

	assert.True(t, support.HasPermission("tickets", "read"))
	assert.True(t, support.HasPermission("tickets", "assign"))
	assert.False(t, support.HasPermission("tickets", "delete"))
	assert.False(t, support.HasPermission("financials", "read"))
}

func TestHasPermissionWildcards(t *testing.T) {
	admin := &Role{Permissions: `{"*":["*"]}`}
	assert.True(t, admin.HasPermission("tickets", "delete"))
	assert.True(t, admin.HasPermission("anything", "whatever"))

	auditor := &Role{Permissions: `{"*":["read"]}`}
	assert.True(t, auditor.HasPermission("financials", "read"))
	assert.False(t, auditor.HasPermission("financials", "update"))

	ticketLord := &Role{Permissions: `{"tickets":["*"]}`}
	assert.True(t, ticketLord.HasPermission("tickets", "assign"))
	assert.False(t, ticketLord.HasPermission("roles", "read"))
}

func TestHasPermissionMalformed(t *testing.T) {
	assert.False(t, (&Role{}).HasPermission("tickets", "read"))
	assert.False(t, (&Role{Permissions: "not json"}).HasPermission("tickets", "read"))
}
