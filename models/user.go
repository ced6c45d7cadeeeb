package models

import (
	"slices"
	"time"
)

const (
	PermAddProduct    = "add_product"
	PermChangeProduct = "change_product"
	PermViewOrder     = "view_order"
	PermViewProfile   = "view_profile"
)

var KnownPermissions = []string{
	PermAddProduct,
	PermChangeProduct,
	PermViewOrder,
	PermViewProfile,
}

type User struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// String is the user's textual representation, also used in cache keys and
// as the per-user export payload key.
func (u User) String() string {
	return u.Username
}

func (u User) HasPerm(codename string) bool {
	if u.IsSuperuser {
		return true
	}
	return slices.Contains(u.Permissions, codename)
}

type Profile struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}

type UserWithProfile struct {
	User
	Profile Profile `json:"profile"`
}

type Group struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}
