package auth

import "strings"

// Known OAuth scopes.
const (
	ScopeAdmin = "admin"
)

// AdminPolicy decides who may use the admin console.
type AdminPolicy struct {
	emails map[string]struct{}
}

// NewAdminPolicy allows the listed emails plus any token carrying the admin scope.
func NewAdminPolicy(emails []string) AdminPolicy {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			set[email] = struct{}{}
		}
	}
	return AdminPolicy{emails: set}
}

// Allows reports whether the claims grant admin access.
func (p AdminPolicy) Allows(claims *Claims) bool {
	if claims == nil {
		return false
	}
	if claims.HasScope(ScopeAdmin) {
		return true
	}
	if claims.Email == "" {
		return false
	}
	_, ok := p.emails[strings.ToLower(claims.Email)]
	return ok
}
