package auth

import "taskapi/internal/model"

// Identity is the authenticated caller. It is resolved once per request and
// passed explicitly into every service call.
type Identity struct {
	UserID      uint
	Username    string
	IsStaff     bool
	IsSuperuser bool
}

// IdentityOf builds the identity for a loaded user.
func IdentityOf(u *model.User) Identity {
	return Identity{
		UserID:      u.ID,
		Username:    u.Username,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}
