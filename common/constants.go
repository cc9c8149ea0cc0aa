package common

const (
	UserContextKey      = "auth_user"
	SessionIDContextKey = "auth_session_id"
	RequestIDContextKey = "request_id"

	RequestIDHeader = "X-Request-ID"
)

// Preload names
const (
	FieldRoles  = "Roles"
	FieldSeller = "Seller"
	FieldBidder = "Bidder"
)
