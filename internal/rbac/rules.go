package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"course:view",
		"enrollment:create",
		"enrollment:cancel",
		"progress:view-own",
		"progress:write",
		"certificate:request",
	},
	"instructor": {
		"course:view",
		"course:create",
		"lesson:create",
		"enrollment:approve",
		"enrollment:reject",
		"progress:view-all",
	},
	"admin": {
		"*", // everything
	},
}
