package model

// Caller is the authenticated identity behind a request. It is derived once
// from the validated token and passed explicitly to every operation.
type Caller struct {
	ID   uint64
	Role Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// Is reports whether the caller is the user with the given id.
func (c Caller) Is(userID uint64) bool { return c.ID != 0 && c.ID == userID }
