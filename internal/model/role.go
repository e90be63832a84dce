package model

import (
	"database/sql/driver"
	"fmt"
)

// Role is the closed set of staff roles that can sign in.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleBilling   Role = "billing"
	RoleAdmitting Role = "admitting"

	// RoleClient marks accounts left over from the old self-service portal.
	// It is never assignable; ParseRole rejects it.
	RoleClient Role = "client"
)

// AssignableRoles lists the roles an admin may give a user.
var AssignableRoles = []Role{RoleAdmin, RoleBilling, RoleAdmitting}

// ParseRole converts s into an assignable Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleBilling, RoleAdmitting:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string { return string(r) }

// Label is the display name of the role.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleBilling:
		return "Billing"
	case RoleAdmitting:
		return "Admitting"
	case RoleClient:
		return "Client"
	default:
		return string(r)
	}
}

// Home is the dashboard path the role lands on after sign in.
func (r Role) Home() string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleBilling:
		return "/billing/dashboard"
	case RoleAdmitting:
		return "/admitting/dashboard"
	default:
		return "/"
	}
}

// NavItem is one entry of the sidebar navigation.
type NavItem struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// Navigation returns the sidebar entries available to the role.
func (r Role) Navigation() []NavItem {
	switch r {
	case RoleAdmin:
		return []NavItem{
			{Title: "Dashboard", Href: "/admin/dashboard"},
			{Title: "Users", Href: "/admin/users"},
			{Title: "Activity Logs", Href: "/admin/activity-logs"},
		}
	case RoleBilling:
		return []NavItem{
			{Title: "Dashboard", Href: "/billing/dashboard"},
			{Title: "Patient SOA", Href: "/billing/patient-soa"},
		}
	case RoleAdmitting:
		return []NavItem{
			{Title: "Dashboard", Href: "/admitting/dashboard"},
			{Title: "Patients", Href: "/admitting/patients"},
			{Title: "Attending Doctors", Href: "/admitting/attending-doctors"},
			{Title: "Admitting Doctors", Href: "/admitting/admitting-doctors"},
			{Title: "Rooms", Href: "/admitting/rooms"},
		}
	default:
		return nil
	}
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

// Scan implements sql.Scanner.
func (r *Role) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(v)
	case nil:
		*r = ""
	default:
		return fmt.Errorf("scan role: unsupported type %T", value)
	}
	return nil
}
