package domain

type RoleID string

const (
	RoleIDSuperAdmin RoleID = "super_admin"
	RoleIDAdmin      RoleID = "admin"
	RoleIDUser       RoleID = "user"
	RoleIDGuest      RoleID = "guest"
)

var AdminRoles = []RoleID{RoleIDSuperAdmin, RoleIDAdmin}

type Role struct {
	ID          RoleID `json:"id" gorm:"type:varchar(20);primary_key"`
	Name        string `json:"name" gorm:"type:varchar(50);not null"`
	Description string `json:"description" gorm:"type:varchar(255)"`
	CreatedAt   int64  `json:"created_at" gorm:"autoCreateTime:milli"`
	UpdatedAt   int64  `json:"updated_at" gorm:"autoUpdateTime:milli"`
	DeletedAt   int64  `json:"deleted_at" gorm:"index;default:0"`
}

// DefaultRoles are seeded on start-up.
func DefaultRoles() []*Role {
	return []*Role{
		{ID: RoleIDSuperAdmin, Name: "Super admin", Description: "Full access to the marketplace"},
		{ID: RoleIDAdmin, Name: "Admin", Description: "Moderates users, products and emails"},
		{ID: RoleIDUser, Name: "User", Description: "Sells and bids on products"},
		{ID: RoleIDGuest, Name: "Guest", Description: "Read-only access"},
	}
}
