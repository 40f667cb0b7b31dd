package guard

import "github.com/makolaconnect/makola/session"

// Policy is the access rule of one protected view. The zero value requires
// an authenticated session of any role.
type Policy struct {
	// AllowAnonymous disables the authentication requirement.
	AllowAnonymous bool
	// AllowedRoles restricts access to the listed roles. Empty means any
	// authenticated role.
	AllowedRoles []session.UserType
}

// Protect returns a policy requiring authentication and, when roles are
// given, one of those roles.
func Protect(roles ...session.UserType) Policy {
	return Policy{AllowedRoles: roles}
}

// Public returns a policy that lets anyone through.
func Public() Policy {
	return Policy{AllowAnonymous: true}
}

// RequireAuth reports whether an authenticated session is mandatory.
func (p Policy) RequireAuth() bool {
	return !p.AllowAnonymous
}

// Allows reports whether role is permitted by the role list.
func (p Policy) Allows(role session.UserType) bool {
	if len(p.AllowedRoles) == 0 {
		return true
	}
	for _, r := range p.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}
