package model

import "time"

// SharePermission controls what a share-link recipient may do with a list.
type SharePermission string

const (
	// PermissionView allows read-only access.
	PermissionView SharePermission = "view"
	// PermissionEdit allows item changes.
	PermissionEdit SharePermission = "edit"
)

// ShareLink is an ephemeral, expiring handle to a snapshot of a shopping list.
type ShareLink struct {
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ShareID    string
	ListID     string
	ListName   string
	Permission SharePermission
	Items      []ShoppingItem
}

// Expired reports whether the link is past its expiry at the given instant.
func (l ShareLink) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
