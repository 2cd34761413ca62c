package models

// Role tags a transcript message for styling
type Role string

const (
	RoleUser        Role = "user"
	RoleAssistant   Role = "assistant"
	RoleSystemError Role = "system-error"
)

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystemError:
		return true
	default:
		return false
	}
}

// Message represents a chat message in the transcript
type Message struct {
	Text        string
	Role        Role
	Provisional bool // placeholder shown while an exchange is in flight
}
