package entity

// Role represents a user role in the system
type Role struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Relationships
	Users []User `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// Role ID constants
const (
	RoleIDAdmin     = 1
	RoleIDDoctor    = 2
	RoleIDAssistant = 3
	RoleIDPatient   = 4
)

// RoleNames constants
const (
	RoleAdmin     = "admin"
	RoleDoctor    = "doctor"
	RoleAssistant = "assistant"
	RolePatient   = "patient"
)

// RoleNameByID maps a role id carried in a token to its name
func RoleNameByID(id int) string {
	switch id {
	case RoleIDAdmin:
		return RoleAdmin
	case RoleIDDoctor:
		return RoleDoctor
	case RoleIDAssistant:
		return RoleAssistant
	case RoleIDPatient:
		return RolePatient
	}
	return ""
}

// IsStaff reports whether the role works inside a clinic
func IsStaff(roleID int) bool {
	return roleID == RoleIDDoctor || roleID == RoleIDAssistant
}
