package entity

// Role represents a portal user role
type Role struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	Users []User `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// Role ID constants
const (
	RoleIDAdmin   = 1
	RoleIDDoctor  = 2
	RoleIDPatient = 3
)

// RoleNames constants
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// DefaultRoles are seeded by the portal migration.
func DefaultRoles() []Role {
	return []Role{
		{ID: RoleIDAdmin, RoleName: RoleAdmin, Description: "Portal administrator"},
		{ID: RoleIDDoctor, RoleName: RoleDoctor, Description: "Clinician"},
		{ID: RoleIDPatient, RoleName: RolePatient, Description: "Patient"},
	}
}

// RoleNameByID maps a role ID to its name; unknown IDs map to patient.
func RoleNameByID(id int) string {
	switch id {
	case RoleIDAdmin:
		return RoleAdmin
	case RoleIDDoctor:
		return RoleDoctor
	default:
		return RolePatient
	}
}
