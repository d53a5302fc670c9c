package auth

import "strings"

// Role is a coarse access level attached to a token.
type Role string

const (
	RoleAnalyst    Role = "analyst"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAnalyst, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// Permission keys checked by the HTTP layer.
const (
	PermRead    = "records.read"
	PermAnalyze = "analysis.run"
	PermIngest  = "records.ingest"
	PermTasks   = "tasks.manage"
	PermStream  = "stream.subscribe"
)

var rolePermissions = map[Role][]string{
	RoleAnalyst:    {PermRead, PermAnalyze, PermStream},
	RoleSupervisor: {PermRead, PermAnalyze, PermStream, PermIngest, PermTasks},
	RoleAdmin:      {PermRead, PermAnalyze, PermStream, PermIngest, PermTasks},
}

// Allowed reports whether any of roles grants perm.
func Allowed(roles []string, perm string) bool {
	for _, r := range roles {
		for _, p := range rolePermissions[Role(r)] {
			if p == perm {
				return true
			}
		}
	}
	return false
}

// NormalizeRoles lower-cases, trims and de-duplicates roles, keeping order.
func NormalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	var normalized []string
	for _, role := range roles {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		normalized = append(normalized, role)
	}
	return normalized
}
