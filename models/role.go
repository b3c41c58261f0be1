package models

// Role identifies which kind of account a request is authenticated as
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Title returns the role name as shown to people, e.g. "Admin"
func (r Role) Title() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleUser:
		return "User"
	}
	return string(r)
}

// HomePath is where an account lands after logging in
func (r Role) HomePath() string {
	if r == RoleAdmin {
		return "/admin/products?page=1"
	}
	return "/products?page=1"
}

// AuthPath builds a path under the role's auth routes, e.g. /auth/admin/log-in
func (r Role) AuthPath(action string) string {
	return "/auth/" + string(r) + "/" + action
}
