package middleware

import "context"

const userIDKey = contextKey("userID")
const adminKey = contextKey("isAdmin")

// GetUserIDFromCtx retrieves the authenticated user ID from a standard
// context. It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromCtx(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// IsAdminFromCtx reports whether the authenticated caller carries the admin role.
func IsAdminFromCtx(ctx context.Context) bool {
	isAdmin, ok := ctx.Value(adminKey).(bool)
	return ok && isAdmin
}
