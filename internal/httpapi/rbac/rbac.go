// Package rbac implements the per-property role check spec §6 puts on
// every HTTP API endpoint: a bearer token carries a role claim, and
// each route declares the minimum role it accepts on a single linear
// ladder from viewer up to owner.
package rbac

import "fmt"

// Role is one of the five roles spec §6 defines, ordered from least to
// most privileged.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleGovernance Role = "governance"
	RoleStaff      Role = "staff"
	RoleManager    Role = "manager"
	RoleOwner      Role = "owner"
)

// rank gives every role its position on the ladder; higher ranks may
// do anything a lower rank may do.
var rank = map[Role]int{
	RoleViewer:     0,
	RoleGovernance: 1,
	RoleStaff:      2,
	RoleManager:    3,
	RoleOwner:      4,
}

// ParseRole validates a role claim string against the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := rank[r]; !ok {
		return "", fmt.Errorf("rbac: unknown role %q", s)
	}
	return r, nil
}

// Satisfies reports whether have is at least as privileged as want.
func Satisfies(have, want Role) bool {
	haveRank, ok := rank[have]
	if !ok {
		return false
	}
	wantRank, ok := rank[want]
	if !ok {
		return false
	}
	return haveRank >= wantRank
}
