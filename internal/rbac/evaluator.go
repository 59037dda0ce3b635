package rbac

// HasPermission reports whether the user's role grants id. A nil user or an
// unresolved role never has any permission.
func HasPermission(user *UserWithRole, id string) bool {
	if user == nil || user.Role == nil {
		return false
	}
	return user.Role.Has(id)
}

// HasAnyPermission reports whether the user's role grants at least one of ids.
// An empty ids list is never satisfied.
func HasAnyPermission(user *UserWithRole, ids []string) bool {
	if user == nil || user.Role == nil {
		return false
	}
	for _, id := range ids {
		if user.Role.Has(id) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the user's role grants every id.
// An empty ids list is always satisfied, even without a user.
func HasAllPermissions(user *UserWithRole, ids []string) bool {
	if len(ids) == 0 {
		return true
	}
	if user == nil || user.Role == nil {
		return false
	}
	for _, id := range ids {
		if !user.Role.Has(id) {
			return false
		}
	}
	return true
}

// UserChecker adapts a user to the Checker interface.
type UserChecker struct {
	User *UserWithRole
}

// HasPermission implements Checker.
func (c UserChecker) HasPermission(id string) bool { return HasPermission(c.User, id) }

// HasAnyPermission implements Checker.
func (c UserChecker) HasAnyPermission(ids []string) bool { return HasAnyPermission(c.User, ids) }

// HasAllPermissions implements Checker.
func (c UserChecker) HasAllPermissions(ids []string) bool { return HasAllPermissions(c.User, ids) }

var _ Checker = UserChecker{}
