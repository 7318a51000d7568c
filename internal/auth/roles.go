package auth

import "fmt"

// Role is a closed set of privilege identifiers. Anything outside the
// constants below is rejected at parse time so a typo can never mint an
// unreachable role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("auth: unknown role %q", s)
	}
}

// ParseRoles converts a list of raw identifiers, failing on the first
// unknown one.
func ParseRoles(ss []string) ([]Role, error) {
	out := make([]Role, 0, len(ss))
	for _, s := range ss {
		r, err := ParseRole(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// HasRequiredRoles reports whether every required role is held. An empty
// required set is trivially satisfied.
func HasRequiredRoles(held, required []Role) bool {
	for _, req := range required {
		found := false
		for _, h := range held {
			if h == req {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func RoleNames(rs []Role) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}
