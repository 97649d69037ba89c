/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package testenv

import (
	"net"
	"time"

	"github.com/apparentlymart/go-cidr/cidr"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/vmware/vcd-system-test-framework/pkg/config"
)

// Environment brings a VCD installation into the fixed hierarchy the
// system tests expect (provider VDC -> org -> users -> org VDC -> network
// -> catalog -> template -> vApp) and records the resolved handles for
// test bodies to read. It is constructed once per run; steps only ever add
// handles, and Teardown clears them.
//
// All steps are idempotent: resources that already exist are located and
// reused, only the gaps are created.
type Environment struct {
	cfg      *config.TestConfig
	sessions SessionSource
	monitor  *TaskMonitor

	pvdcName    string
	pvdcHREF    string
	orgHREF     string
	ovdcHREF    string
	networkHREF string
	vappHREF    string
	userHREFs   map[CommonRole]string
}

// New builds an Environment. The configuration must already be validated.
func New(cfg *config.TestConfig, sessions SessionSource) *Environment {
	return &Environment{
		cfg:      cfg,
		sessions: sessions,
		monitor: NewTaskMonitor(
			time.Duration(cfg.Tasks.PollIntervalSeconds)*time.Second,
			time.Duration(cfg.Tasks.TimeoutSeconds)*time.Second),
		userHREFs: make(map[CommonRole]string),
	}
}

// Provision runs every ensure-step in dependency order. It is safe to call
// repeatedly; a second run on a fully provisioned system performs no
// remote mutations. The first failing step aborts the sequence.
func (e *Environment) Provision() error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"provider vdc", e.EnsureProviderVdc},
		{"organization", e.EnsureOrg},
		{"users", e.EnsureUsers},
		{"org vdc", e.EnsureOrgVdc},
		{"org vdc network", e.EnsureOvdcNetwork},
		{"catalog", e.EnsureCatalog},
		{"catalog sharing", e.ShareCatalog},
		{"template", e.EnsureTemplate},
		{"vapp", e.EnsureVApp},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return errors.Wrapf(err, "provisioning step [%s] failed", step.name)
		}
	}
	return nil
}

// EnsureProviderVdc resolves the provider VDC named in the configuration,
// or the first one in the system for the wildcard. Provider VDCs are never
// created by this harness; one must exist.
func (e *Environment) EnsureProviderVdc() error {
	sys, err := e.sessions.SystemClient()
	if err != nil {
		return err
	}

	records, err := sys.ListProviderVdcs()
	if err != nil {
		return err
	}
	record, err := FindByName("provider vdc", records, e.cfg.VCD.PvdcName)
	if err != nil {
		return err
	}

	klog.V(4).Infof("using provider vdc [%s]", record.Name)
	e.pvdcName = record.Name
	e.pvdcHREF = record.HREF
	return nil
}

// EnsureOrg locates the test org, creating it if absent. Creation runs
// with system-administrator credentials, which yields an admin-scoped
// href; the org is therefore re-listed afterwards to obtain the ordinary
// href that role users can work with. Skipping that re-resolution breaks
// every later step that hands the href to a non-admin session.
func (e *Environment) EnsureOrg() error {
	sys, err := e.sessions.SystemClient()
	if err != nil {
		return err
	}
	orgName := e.cfg.VCD.OrgName

	records, err := sys.ListOrgs()
	if err != nil {
		return err
	}
	record, err := FindByName("org", records, orgName)
	if err == nil {
		klog.V(4).Infof("reusing existing org [%s]", orgName)
		e.orgHREF = record.HREF
		return nil
	}
	if !IsNotFound(err) && !isNoneAvailable(err) {
		return err
	}

	klog.Infof("creating org [%s]", orgName)
	task, err := sys.CreateOrg(orgName)
	if err != nil {
		return err
	}
	if err := e.monitor.WaitForSuccess(task); err != nil {
		return err
	}

	records, err = sys.ListOrgs()
	if err != nil {
		return err
	}
	record, err = FindByName("org", records, orgName)
	if err != nil {
		return errors.Wrapf(err, "org [%s] is missing after creation", orgName)
	}
	e.orgHREF = record.HREF
	return nil
}

// EnsureUsers creates one org local user per role in the fixed role set.
// The per-role checks are independent: a failure on one role is recorded
// and the remaining roles are still processed.
func (e *Environment) EnsureUsers() error {
	if e.orgHREF == "" {
		return &DependencyNotResolvedError{Dependency: "organization"}
	}
	sys, err := e.sessions.SystemClient()
	if err != nil {
		return err
	}
	orgName := e.cfg.VCD.OrgName

	var result *multierror.Error
	for _, role := range AllRoles() {
		username := role.Username()

		record, err := sys.GetUser(orgName, username)
		if err == nil {
			klog.V(4).Infof("reusing existing user [%s]", username)
			e.userHREFs[role] = record.HREF
			continue
		}
		if !IsNotFound(err) {
			result = multierror.Append(result, errors.Wrapf(err, "looking up user [%s]", username))
			continue
		}

		klog.Infof("creating user [%s] with role [%s]", username, role.RoleName())
		record, err = sys.CreateUser(orgName, UserSpec{
			Name:     username,
			Password: e.cfg.VCD.OrgUserPassword,
			RoleName: role.RoleName(),
		})
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "creating user [%s]", username))
			continue
		}
		e.userHREFs[role] = record.HREF
	}
	return result.ErrorOrNil()
}

// EnsureOrgVdc locates the org VDC, creating it if absent. Creation needs
// the provider VDC and the org resolved first, plus a netpool and a
// provider storage profile, both of which may be wildcards. As with the
// org, the freshly created VDC is re-listed to swap the admin-scoped href
// for the ordinary one.
func (e *Environment) EnsureOrgVdc() error {
	if e.orgHREF == "" {
		return &DependencyNotResolvedError{Dependency: "organization"}
	}
	if e.pvdcName == "" {
		return &DependencyNotResolvedError{Dependency: "provider vdc"}
	}
	sys, err := e.sessions.SystemClient()
	if err != nil {
		return err
	}
	orgName := e.cfg.VCD.OrgName
	vdcName := e.cfg.VCD.OvdcName

	records, err := sys.ListOrgVdcs(orgName)
	if err != nil {
		return err
	}
	record, err := FindByName("org vdc", records, vdcName)
	if err == nil {
		klog.V(4).Infof("reusing existing org vdc [%s]", vdcName)
		e.ovdcHREF = record.HREF
		return nil
	}
	if !IsNotFound(err) && !isNoneAvailable(err) {
		return err
	}

	netpools, err := sys.ListNetworkPools()
	if err != nil {
		return err
	}
	netpool, err := FindByName("network pool", netpools, e.cfg.VCD.NetpoolName)
	if err != nil {
		return err
	}

	profiles, err := sys.ListProviderStorageProfiles(e.pvdcHREF)
	if err != nil {
		return err
	}
	profile, err := FindByName("provider storage profile", profiles, e.cfg.VCD.StorageProfileName)
	if err != nil {
		return err
	}

	klog.Infof("creating org vdc [%s] on provider vdc [%s]", vdcName, e.pvdcName)
	task, err := sys.CreateOrgVdc(orgName, VdcSpec{
		Name:               vdcName,
		ProviderVdcName:    e.pvdcName,
		ProviderVdcHREF:    e.pvdcHREF,
		NetworkPoolName:    netpool.Name,
		NetworkPoolHREF:    netpool.HREF,
		StorageProfileName: profile.Name,
		StorageProfileHREF: profile.HREF,
		StorageLimitMB:     e.cfg.VCD.StorageLimitMB,
		NetworkQuota:       e.cfg.VCD.NetworkQuota,
	})
	if err != nil {
		return err
	}
	if err := e.monitor.WaitForSuccess(task); err != nil {
		return err
	}

	records, err = sys.ListOrgVdcs(orgName)
	if err != nil {
		return err
	}
	record, err = FindByName("org vdc", records, vdcName)
	if err != nil {
		return errors.Wrapf(err, "org vdc [%s] is missing after creation", vdcName)
	}
	e.ovdcHREF = record.HREF
	return nil
}

// EnsureOvdcNetwork locates the isolated org VDC network, creating it from
// the configured CIDR if absent.
func (e *Environment) EnsureOvdcNetwork() error {
	if e.ovdcHREF == "" {
		return &DependencyNotResolvedError{Dependency: "org vdc"}
	}
	sys, err := e.sessions.SystemClient()
	if err != nil {
		return err
	}
	orgName := e.cfg.VCD.OrgName
	vdcName := e.cfg.VCD.OvdcName
	networkName := e.cfg.VCD.NetworkName

	records, err := sys.ListOrgVdcNetworks(orgName, vdcName)
	if err != nil {
		return err
	}
	record, err := FindByName("org vdc network", records, networkName)
	if err == nil {
		klog.V(4).Infof("reusing existing org vdc network [%s]", networkName)
		e.networkHREF = record.HREF
		return nil
	}
	if !IsNotFound(err) && !isNoneAvailable(err) {
		return err
	}

	gateway, netmask, err := gatewayForCIDR(e.cfg.VCD.NetworkCIDR)
	if err != nil {
		return err
	}

	klog.Infof("creating isolated org vdc network [%s] (gateway %s/%s)", networkName, gateway, netmask)
	task, err := sys.CreateIsolatedOrgVdcNetwork(orgName, vdcName, NetworkSpec{
		Name:    networkName,
		Gateway: gateway,
		Netmask: netmask,
	})
	if err != nil {
		return err
	}
	if err := e.monitor.WaitForSuccess(task); err != nil {
		return err
	}

	records, err = sys.ListOrgVdcNetworks(orgName, vdcName)
	if err != nil {
		return err
	}
	if record, err = FindByName("org vdc network", records, networkName); err == nil {
		e.networkHREF = record.HREF
	}
	return nil
}

// EnsureCatalog locates the catalog, creating it if absent. The step runs
// under a catalog-author session, not as system administrator, so that the
// catalog is owned the way it would be in a tenant.
func (e *Environment) EnsureCatalog() error {
	if e.orgHREF == "" {
		return &DependencyNotResolvedError{Dependency: "organization"}
	}
	catalogName := e.cfg.VCD.CatalogName

	return e.withRoleSession(RoleCatalogAuthor, func(client OrgUserAPI) error {
		records, err := client.ListCatalogs()
		if err != nil {
			return err
		}
		_, err = FindByName("catalog", records, catalogName)
		if err == nil {
			klog.V(4).Infof("reusing existing catalog [%s]", catalogName)
			return nil
		}
		if !IsNotFound(err) && !isNoneAvailable(err) {
			return err
		}

		klog.Infof("creating catalog [%s]", catalogName)
		task, err := client.CreateCatalog(catalogName)
		if err != nil {
			return err
		}
		return e.monitor.WaitForSuccess(task)
	})
}

// ShareCatalog shares the catalog with all members of the test org. A
// missing catalog at this point is a fatal error: the catalog step must
// have run first.
func (e *Environment) ShareCatalog() error {
	if e.orgHREF == "" {
		return &DependencyNotResolvedError{Dependency: "organization"}
	}
	sys, err := e.sessions.SystemClient()
	if err != nil {
		return err
	}

	klog.V(4).Infof("sharing catalog [%s] with all members of org [%s]", e.cfg.VCD.CatalogName, e.cfg.VCD.OrgName)
	return sys.ShareCatalog(e.cfg.VCD.OrgName, e.cfg.VCD.CatalogName)
}

// EnsureTemplate uploads the OVA template into the catalog unless an item
// of that name already exists.
func (e *Environment) EnsureTemplate() error {
	if e.orgHREF == "" {
		return &DependencyNotResolvedError{Dependency: "organization"}
	}
	catalogName := e.cfg.VCD.CatalogName
	templateName := e.cfg.VCD.TemplateName

	return e.withRoleSession(RoleCatalogAuthor, func(client OrgUserAPI) error {
		items, err := client.ListCatalogItems(catalogName)
		if err != nil {
			return err
		}
		_, err = FindByName("catalog item", items, templateName)
		if err == nil {
			klog.V(4).Infof("reusing existing template [%s]", templateName)
			return nil
		}
		if !IsNotFound(err) && !isNoneAvailable(err) {
			return err
		}

		klog.Infof("uploading template [%s] to catalog [%s]", templateName, catalogName)
		task, err := client.UploadTemplate(catalogName, e.cfg.VCD.TemplatePath, templateName)
		if err != nil {
			return err
		}
		return e.monitor.WaitForSuccess(task)
	})
}

// EnsureVApp instantiates the test vApp from the uploaded template unless
// it already exists in the org VDC. Absence is detected structurally via
// NotFoundError; any other retrieval failure aborts the step.
func (e *Environment) EnsureVApp() error {
	if e.ovdcHREF == "" {
		return &DependencyNotResolvedError{Dependency: "org vdc"}
	}
	vdcName := e.cfg.VCD.OvdcName
	vappName := e.cfg.VCD.VAppName

	return e.withRoleSession(RoleCatalogAuthor, func(client OrgUserAPI) error {
		record, err := client.GetVApp(vdcName, vappName)
		if err == nil {
			klog.V(4).Infof("reusing existing vapp [%s]", vappName)
			e.vappHREF = record.HREF
			return nil
		}
		if !IsNotFound(err) {
			return err
		}

		klog.Infof("instantiating vapp [%s] from template [%s]", vappName, e.cfg.VCD.TemplateName)
		task, err := client.InstantiateVApp(vdcName, VAppSpec{
			Name:         vappName,
			CatalogName:  e.cfg.VCD.CatalogName,
			TemplateName: e.cfg.VCD.TemplateName,
			NetworkName:  e.cfg.VCD.NetworkName,
		})
		if err != nil {
			return err
		}
		if err := e.monitor.WaitForSuccess(task); err != nil {
			return err
		}

		record, err = client.GetVApp(vdcName, vappName)
		if err != nil {
			return errors.Wrapf(err, "vapp [%s] is missing after instantiation", vappName)
		}
		e.vappHREF = record.HREF
		return nil
	})
}

// withRoleSession runs fn with a fresh org user session for the role and
// releases the session on every exit path, exactly once.
func (e *Environment) withRoleSession(role CommonRole, fn func(client OrgUserAPI) error) error {
	client, err := e.sessions.OrgUserClient(role)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Logout(); err != nil {
			klog.Errorf("unable to log out session for role [%s]: [%v]", role, err)
		}
	}()

	return fn(client)
}

// gatewayForCIDR derives the network gateway address (the first host of
// the range) and the dotted netmask from a CIDR.
func gatewayForCIDR(networkCIDR string) (string, string, error) {
	_, ipNet, err := net.ParseCIDR(networkCIDR)
	if err != nil {
		return "", "", errors.Wrapf(err, "unable to parse network CIDR [%s]", networkCIDR)
	}
	gateway, err := cidr.Host(ipNet, 1)
	if err != nil {
		return "", "", errors.Wrapf(err, "unable to derive gateway for [%s]", networkCIDR)
	}
	return gateway.String(), net.IP(ipNet.Mask).String(), nil
}

func isNoneAvailable(err error) bool {
	var noneAvailable *NoneAvailableError
	return errors.As(err, &noneAvailable)
}

// PvdcName returns the name of the provider VDC backing the environment.
func (e *Environment) PvdcName() string {
	return e.pvdcName
}

// PvdcHREF returns the href of the provider VDC backing the environment.
func (e *Environment) PvdcHREF() string {
	return e.pvdcHREF
}

// OrgHREF returns the non-admin href of the test org.
func (e *Environment) OrgHREF() string {
	return e.orgHREF
}

// VdcHREF returns the non-admin href of the test org VDC.
func (e *Environment) VdcHREF() string {
	return e.ovdcHREF
}

// NetworkHREF returns the href of the test org VDC network.
func (e *Environment) NetworkHREF() string {
	return e.networkHREF
}

// VAppHREF returns the href of the test vApp.
func (e *Environment) VAppHREF() string {
	return e.vappHREF
}

// UserHREF returns the href of the test user created for the role, or ""
// if the users step has not resolved it.
func (e *Environment) UserHREF(role CommonRole) string {
	return e.userHREFs[role]
}

// CatalogName returns the name of the test catalog.
func (e *Environment) CatalogName() string {
	return e.cfg.VCD.CatalogName
}

// TemplateName returns the name of the test template.
func (e *Environment) TemplateName() string {
	return e.cfg.VCD.TemplateName
}

// NetworkName returns the name of the test org VDC network.
func (e *Environment) NetworkName() string {
	return e.cfg.VCD.NetworkName
}

// VMName returns the name of the default test VM.
func (e *Environment) VMName() string {
	return e.cfg.VCD.VMName
}
