package services

import "github.com/tbourn/go-leads-backend/internal/utils"

// Roles supplied by the upstream authentication context.
const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// Caller is the authenticated identity behind a request. It is trusted as
// given; credentials are checked upstream.
type Caller struct {
	UserID string
	Role   string
}

// Is reports whether the caller holds role.
func (c Caller) Is(role string) bool { return c.Role == role }

func (c Caller) valid() bool { return c.UserID != "" }

func pageBounds(page, pageSize int) (offset, limit int) {
	return utils.PageBounds(page, pageSize)
}
