package core

// Identity is the verified caller extracted from a bearer token.
// It is constructed per-request and never persisted.
type Identity struct {
	// Subject is the Auth0 user id (sub claim), e.g. "auth0|abc123".
	Subject string `json:"sub"`
	// Permissions holds the token's permissions claim; empty slice when the
	// claim is absent.
	Permissions []string `json:"permissions"`
	// Email is optional; Auth0 only includes it when the API requests it.
	Email string `json:"email,omitempty"`
}

// HasPermission reports whether the identity carries the given permission.
func (id *Identity) HasPermission(perm string) bool {
	if id == nil {
		return false
	}
	for _, p := range id.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
