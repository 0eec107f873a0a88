package authroles

import (
	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups to roles by simple string membership.
// An empty UserGroup means every authenticated identity is at least a user;
// an empty AdminGroup means nobody is promoted to admin.
type StaticRoleMapper struct {
	AdminGroup string
	UserGroup  string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	if m.UserGroup == "" {
		return domainauth.RoleUser
	}
	for _, g := range groups {
		if g == m.UserGroup {
			return domainauth.RoleUser
		}
	}
	return domainauth.RoleGuest
}
