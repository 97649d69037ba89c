/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package testenv

// Record is a resource descriptor from a listing: the resource name and
// the href it is addressed by. The href is opaque to this package.
type Record struct {
	Name string
	HREF string
}

// Task is a handle to an asynchronous remote operation. Poll refreshes the
// handle and returns the latest known status.
type Task interface {
	Poll() (TaskStatus, error)
}

// VdcSpec describes an org VDC to create. Hrefs of the backing provider
// resources must be resolved before creation.
type VdcSpec struct {
	Name               string
	ProviderVdcName    string
	ProviderVdcHREF    string
	NetworkPoolName    string
	NetworkPoolHREF    string
	StorageProfileName string
	StorageProfileHREF string
	StorageLimitMB     int64
	NetworkQuota       int
}

// UserSpec describes an org local user to create.
type UserSpec struct {
	Name     string
	Password string
	RoleName string
}

// NetworkSpec describes an isolated org VDC network to create.
type NetworkSpec struct {
	Name    string
	Gateway string
	Netmask string
}

// VAppSpec describes a vApp to instantiate from a catalog template.
type VAppSpec struct {
	Name         string
	CatalogName  string
	TemplateName string
	NetworkName  string
}

// SystemAPI is the system-administrator view of VCD consumed by the
// provisioner. Creations that are asynchronous on the wire return a Task;
// a nil Task means the operation completed synchronously.
type SystemAPI interface {
	ListProviderVdcs() ([]Record, error)
	ListNetworkPools() ([]Record, error)
	ListProviderStorageProfiles(pvdcHREF string) ([]Record, error)

	ListOrgs() ([]Record, error)
	CreateOrg(name string) (Task, error)

	ListOrgVdcs(orgName string) ([]Record, error)
	CreateOrgVdc(orgName string, spec VdcSpec) (Task, error)

	GetUser(orgName string, username string) (Record, error)
	CreateUser(orgName string, spec UserSpec) (Record, error)

	ListOrgVdcNetworks(orgName string, vdcName string) ([]Record, error)
	CreateIsolatedOrgVdcNetwork(orgName string, vdcName string, spec NetworkSpec) (Task, error)

	ShareCatalog(orgName string, catalogName string) error

	DisableVdc(orgName string, vdcName string) error
	DeleteVdc(orgName string, vdcName string) (Task, error)
}

// OrgUserAPI is the view of an ordinary org user session. The session is
// bound to the test org at login and must be released with Logout.
type OrgUserAPI interface {
	ListCatalogs() ([]Record, error)
	CreateCatalog(name string) (Task, error)

	ListCatalogItems(catalogName string) ([]Record, error)
	UploadTemplate(catalogName string, templatePath string, templateName string) (Task, error)

	GetVApp(vdcName string, vappName string) (Record, error)
	InstantiateVApp(vdcName string, spec VAppSpec) (Task, error)
	DeleteVApp(vdcName string, vappName string) (Task, error)

	Logout() error
}

// SessionSource hands out authenticated sessions. The system session is
// cached for the life of the source; org user sessions are fresh on every
// call and owned by the caller.
type SessionSource interface {
	SystemClient() (SystemAPI, error)
	OrgUserClient(role CommonRole) (OrgUserAPI, error)

	// Close releases the cached system session.
	Close() error
}
