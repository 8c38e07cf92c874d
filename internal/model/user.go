package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the privilege level of an account. The set is closed: values only
// come from the constants below or from ParseRole.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

// Capability is a named action gated by role.
type Capability string

const (
	CapManageCatalog Capability = "catalog:manage"
	CapManageIssues  Capability = "issues:manage"
	CapViewUsers     Capability = "users:view"
	CapChangeRoles   Capability = "users:change_role"
	CapDeleteUsers   Capability = "users:delete"
)

// roleRank orders roles for privilege comparison.
var roleRank = map[Role]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// roleCapabilities is the capability matrix for each role.
var roleCapabilities = map[Role][]Capability{
	RoleUser: {},
	RoleAdmin: {
		CapManageCatalog,
		CapManageIssues,
		CapViewUsers,
	},
	RoleSuperAdmin: {
		CapManageCatalog,
		CapManageIssues,
		CapViewUsers,
		CapChangeRoles,
		CapDeleteUsers,
	},
}

// ParseRole converts a string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r is as privileged as min. Unknown roles are never
// privileged.
func (r Role) AtLeast(min Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	return have >= roleRank[min]
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// User represents an account in the system
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	Role         Role      `json:"role"`
	StudentID    *string   `json:"studentId,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserProfile is the public view of a user embedded in issue records.
type UserProfile struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      Role    `json:"role"`
	StudentID *string `json:"studentId,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Profile returns the public view of u.
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		StudentID: u.StudentID,
		Phone:     u.Phone,
	}
}

// RegisterRequest is the payload for account creation
type RegisterRequest struct {
	Name      string  `json:"name" binding:"required,notblank"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=6"`
	StudentID *string `json:"studentId"`
	Phone     *string `json:"phone"`
}

// LoginRequest is the payload for credential verification
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest carries a partial profile update. Pointers distinguish
// "absent" from "empty".
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty" binding:"omitempty,notblank"`
	Email *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone *string `json:"phone,omitempty"`
	Role  *string `json:"role,omitempty"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}
