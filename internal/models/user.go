package models

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleEmployer  Role = "employer"
	RoleJobSeeker Role = "job_seeker"
	RoleAdmin     Role = "admin"
	RoleNone      Role = "none"
)

var ErrForbidden = errors.New("forbidden")

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
}

func (u *User) IsEmployer() bool  { return u != nil && u.Role == RoleEmployer }
func (u *User) IsJobSeeker() bool { return u != nil && u.Role == RoleJobSeeker }
func (u *User) IsAdmin() bool     { return u != nil && u.Role == RoleAdmin }

// RequireRole guards admin and employer-only operations.
func RequireRole(u *User, roles ...Role) error {
	if u == nil {
		return fmt.Errorf("%w: not signed in", ErrForbidden)
	}
	for _, r := range roles {
		if u.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q not allowed", ErrForbidden, u.Role)
}

// AllowsMultipleResumes is true for employers comparing several candidates.
func (u *User) AllowsMultipleResumes() bool {
	return u.IsEmployer()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// RegisterRequest carries the fields for either role; the unused group is omitted.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	CompanyName     string `json:"company_name,omitempty"`
	CompanyWebsite  string `json:"company_website,omitempty"`
	CompanySize     int    `json:"company_size,omitempty"`
	CompanyIndustry string `json:"company_industry,omitempty"`
}
