package auth

import "github.com/dmitrijs2005/recipehub/internal/server/models"

// Decision is the outcome of an ownership check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize allows a mutation only when caller is the recorded owner.
// A missing caller or a missing owner always denies.
func Authorize(caller, owner models.IdentityID) Decision {
	if caller.IsZero() || owner.IsZero() {
		return Deny
	}
	if caller != owner {
		return Deny
	}
	return Allow
}
