package middleware

import "github.com/labstack/echo/v4"

// Roles carried in the JWT role claim.
const (
	RoleCustomer = "CUSTOMER"
	RoleOwner    = "OWNER"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// ClaimantID returns the authenticated claimant id set by JWTAuth.
func ClaimantID(c echo.Context) (string, bool) {
	s, ok := c.Get(ctxUserID).(string)
	return s, ok && s != ""
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}
