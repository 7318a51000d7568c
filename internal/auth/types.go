package auth

// TokenClass distinguishes the two kinds of tokens this backend issues:
// short-lived access tokens that authorize individual requests, and
// long-lived refresh tokens that may only be exchanged for new access
// tokens.
type TokenClass int

const (
	AccessToken TokenClass = iota
	RefreshToken
)

func (c TokenClass) String() string {
	if c == RefreshToken {
		return "refresh"
	}
	return "access"
}

// Claims is the decoded payload of a verified token. It is only ever built
// from a payload whose signature and expiry already checked out.
type Claims struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Roles     []Role `json:"roles"`
	ExpiresAt int64  `json:"exp"`
	Refresh   bool   `json:"is_refresh"`
	TokenID   string `json:"jti,omitempty"`
}
