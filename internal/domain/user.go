package domain

// Role defines a user's capability level.
type Role string

// Roles.
const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User is a library account.
type User struct {
	Entity
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`

	// PasswordHash is the argon2id-encoded password. Never serialized.
	PasswordHash string `json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
