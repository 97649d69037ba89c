/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package testenv

// CommonRole is one of the fixed VCD roles the test environment creates a
// user for. The set is closed; usernames are derived from the role.
type CommonRole int

const (
	RoleCatalogAuthor CommonRole = iota
	RoleConsoleAccessOnly
	RoleOrgAdministrator
	RoleVAppAuthor
	RoleVAppUser
)

var roleNames = map[CommonRole]string{
	RoleCatalogAuthor:     "Catalog Author",
	RoleConsoleAccessOnly: "Console Access Only",
	RoleOrgAdministrator:  "Organization Administrator",
	RoleVAppAuthor:        "vApp Author",
	RoleVAppUser:          "vApp User",
}

var roleUsernames = map[CommonRole]string{
	RoleCatalogAuthor:     "catalog_author",
	RoleConsoleAccessOnly: "console_user",
	RoleOrgAdministrator:  "org_admin",
	RoleVAppAuthor:        "vapp_author",
	RoleVAppUser:          "vapp_user",
}

// RoleName is the role name as VCD knows it.
func (r CommonRole) RoleName() string {
	return roleNames[r]
}

// Username is the fixed test username for the role.
func (r CommonRole) Username() string {
	return roleUsernames[r]
}

func (r CommonRole) String() string {
	return roleNames[r]
}

// AllRoles returns every role in a stable order.
func AllRoles() []CommonRole {
	return []CommonRole{
		RoleCatalogAuthor,
		RoleConsoleAccessOnly,
		RoleOrgAdministrator,
		RoleVAppAuthor,
		RoleVAppUser,
	}
}
