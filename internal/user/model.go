package user

import (
	"fmt"
	"time"
)

// User represents a row in the users table. A user is unique within its
// authority (tenant namespace); the userid combines both into a globally
// unique identifier.
type User struct {
	Userid       string
	Username     string
	Authority    string
	PasswordHash *string // nil for users who never set a password
	Activated    bool
	Deleted      bool
	CreatedAt    time.Time
}

// FormatUserid builds the canonical userid for a username within an
// authority, e.g. "acct:alice@example.com".
func FormatUserid(username, authority string) string {
	return fmt.Sprintf("acct:%s@%s", username, authority)
}
