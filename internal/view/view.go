// Package view decides which top-level view a session lands on.
package view

type View string

const (
	// Gate is the access-code entry screen shown to unauthenticated
	// sessions.
	Gate View = "gate"
	// Admin is the editable mirror of the data room.
	Admin View = "admin"
	// Room is the read-only investor view.
	Room View = "room"
)

// Route picks the view for a session. Any authenticated non-admin role gets
// the read-only room; only admins edit.
func Route(authenticated bool, role string) View {
	if !authenticated {
		return Gate
	}
	if role == "admin" {
		return Admin
	}
	return Room
}
