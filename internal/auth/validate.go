package auth

import "github.com/golang-jwt/jwt/v5"

// requiredFields are the payload keys every token of ours carries.
var requiredFields = [...]string{"email", "username", "roles", "exp", "is_refresh"}

// WellFormed reports whether a decoded payload has the expected shape. The
// check is presence-only: empty-string values still count as present.
func WellFormed(m jwt.MapClaims) bool {
	for _, k := range requiredFields {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

func isRefresh(m jwt.MapClaims) bool {
	v, _ := m["is_refresh"].(bool)
	return v
}

// ValidAccess reports whether the payload is well formed and marked as an
// access token. A refresh token never passes, whatever else it carries.
func ValidAccess(m jwt.MapClaims) bool {
	return WellFormed(m) && !isRefresh(m)
}

// ValidRefresh is the mirror check for refresh tokens.
func ValidRefresh(m jwt.MapClaims) bool {
	return WellFormed(m) && isRefresh(m)
}
