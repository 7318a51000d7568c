package auth

// Decision is the outcome of checking one presented token. Exactly one of
// three cases holds: rejected (with a reason), authenticated, or
// authenticated with the admin privilege. Claims may be attached even on a
// rejection when the token decoded but failed a semantic check, so callers
// can log who presented it.
type Decision struct {
	claims *Claims
	reason error
	admin  bool
}

func (d Decision) Authenticated() bool { return d.reason == nil }
func (d Decision) Privileged() bool    { return d.reason == nil && d.admin }
func (d Decision) Claims() *Claims     { return d.claims }
func (d Decision) Reason() error       { return d.reason }

// Gate decides whether a presented bearer token authorizes a request, and
// whether its subject holds the admin role. It is a pure function of the
// token and the signer's immutable configuration.
type Gate struct {
	signer *Signer
}

func NewGate(signer *Signer) *Gate {
	return &Gate{signer: signer}
}

// Authorize decodes and checks a token. Only access tokens authorize
// requests: a valid refresh token is rejected with ErrWrongTokenClass, with
// its claims attached for diagnostics.
func (g *Gate) Authorize(token string) Decision {
	m, err := g.signer.Decode(token)
	if err != nil {
		return Decision{reason: err}
	}
	if !ValidAccess(m) {
		return Decision{reason: ErrWrongTokenClass, claims: ClaimsFromMap(m)}
	}
	return Decision{claims: ClaimsFromMap(m)}
}

// AuthorizeAdmin runs Authorize and, on success, evaluates the role policy
// with required={admin}.
func (g *Gate) AuthorizeAdmin(token string) Decision {
	d := g.Authorize(token)
	if !d.Authenticated() {
		return d
	}
	d.admin = HasRequiredRoles(d.claims.Roles, []Role{RoleAdmin})
	return d
}

// RequireAdmin is the guard-clause form: ErrUnauthorized when the token
// does not authenticate, ErrForbidden when it does but the subject is not
// an admin, nil otherwise.
func (g *Gate) RequireAdmin(token string) error {
	d := g.AuthorizeAdmin(token)
	if !d.Authenticated() {
		return ErrUnauthorized
	}
	if !d.Privileged() {
		return ErrForbidden
	}
	return nil
}
