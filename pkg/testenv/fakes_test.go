/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package testenv

import (
	"fmt"

	"github.com/vmware/vcd-system-test-framework/pkg/config"
)

// fakeTask replays a fixed status sequence, holding the last status once
// the sequence is exhausted.
type fakeTask struct {
	statuses []TaskStatus
	polls    int
	pollErr  error
}

func (t *fakeTask) Poll() (TaskStatus, error) {
	if t.pollErr != nil {
		return "", t.pollErr
	}
	i := t.polls
	if i >= len(t.statuses) {
		i = len(t.statuses) - 1
	}
	t.polls++
	return t.statuses[i], nil
}

func successTask() *fakeTask {
	return &fakeTask{statuses: []TaskStatus{TaskStatusSuccess}}
}

func failedTask() *fakeTask {
	return &fakeTask{statuses: []TaskStatus{TaskStatusError}}
}

// fakeVCD is the in-memory remote system shared by the fake system and
// org user sessions. It records every mutation in order.
type fakeVCD struct {
	pvdcs    []Record
	netpools []Record
	profiles []Record

	orgs     []Record
	vdcs     map[string][]Record
	users    map[string]Record
	networks []Record
	catalogs []Record
	items    map[string][]Record
	vapps    map[string]Record

	vdcDisabled   bool
	catalogShared bool

	// failTask makes the named mutation return a task that ends in error.
	failTask map[string]bool
	// userCreateErr fails creation of specific usernames.
	userCreateErr map[string]error
	catalogsErr   error
	deleteVAppErr error

	lastNetworkSpec NetworkSpec

	mutations []string
	calls     []string
}

func newFakeVCD() *fakeVCD {
	return &fakeVCD{
		pvdcs:    []Record{{Name: "pvdc-1", HREF: "https://vcd.test/api/providervdc/pvdc-1"}},
		netpools: []Record{{Name: "netpool-1", HREF: "https://vcd.test/api/netpool/netpool-1"}},
		profiles: []Record{{Name: "profile-1", HREF: "https://vcd.test/api/storageprofile/profile-1"}},
		vdcs:     make(map[string][]Record),
		users:    make(map[string]Record),
		items:    make(map[string][]Record),
		vapps:    make(map[string]Record),
		failTask: make(map[string]bool),
	}
}

// seedProvisioned populates the fake so that every resource the config
// names already exists.
func seedProvisioned(f *fakeVCD, cfg *config.TestConfig) {
	orgName := cfg.VCD.OrgName
	f.orgs = append(f.orgs, Record{Name: orgName, HREF: "https://vcd.test/api/org/1"})
	f.vdcs[orgName] = []Record{{Name: cfg.VCD.OvdcName, HREF: "https://vcd.test/api/vdc/1"}}
	for _, role := range AllRoles() {
		f.users[role.Username()] = Record{Name: role.Username(),
			HREF: "https://vcd.test/api/admin/user/" + role.Username()}
	}
	f.networks = []Record{{Name: cfg.VCD.NetworkName, HREF: "https://vcd.test/api/network/1"}}
	f.catalogs = []Record{{Name: cfg.VCD.CatalogName, HREF: "https://vcd.test/api/catalog/1"}}
	f.items[cfg.VCD.CatalogName] = []Record{{Name: cfg.VCD.TemplateName,
		HREF: "https://vcd.test/api/catalogItem/1"}}
	f.vapps[cfg.VCD.VAppName] = Record{Name: cfg.VCD.VAppName, HREF: "https://vcd.test/api/vApp/1"}
}

func (f *fakeVCD) mutate(op string) {
	f.mutations = append(f.mutations, op)
}

func (f *fakeVCD) ListProviderVdcs() ([]Record, error) {
	f.calls = append(f.calls, "ListProviderVdcs")
	return f.pvdcs, nil
}

func (f *fakeVCD) ListNetworkPools() ([]Record, error) {
	f.calls = append(f.calls, "ListNetworkPools")
	return f.netpools, nil
}

func (f *fakeVCD) ListProviderStorageProfiles(pvdcHREF string) ([]Record, error) {
	f.calls = append(f.calls, "ListProviderStorageProfiles")
	return f.profiles, nil
}

func (f *fakeVCD) ListOrgs() ([]Record, error) {
	f.calls = append(f.calls, "ListOrgs")
	return f.orgs, nil
}

func (f *fakeVCD) CreateOrg(name string) (Task, error) {
	f.mutate("create-org:" + name)
	if f.failTask["create-org"] {
		return failedTask(), nil
	}
	f.orgs = append(f.orgs, Record{Name: name,
		HREF: fmt.Sprintf("https://vcd.test/api/org/%d", len(f.orgs)+1)})
	return successTask(), nil
}

func (f *fakeVCD) ListOrgVdcs(orgName string) ([]Record, error) {
	f.calls = append(f.calls, "ListOrgVdcs")
	return f.vdcs[orgName], nil
}

func (f *fakeVCD) CreateOrgVdc(orgName string, spec VdcSpec) (Task, error) {
	f.mutate("create-vdc:" + spec.Name)
	if f.failTask["create-vdc"] {
		return failedTask(), nil
	}
	f.vdcs[orgName] = append(f.vdcs[orgName], Record{Name: spec.Name,
		HREF: fmt.Sprintf("https://vcd.test/api/vdc/%d", len(f.vdcs[orgName])+1)})
	return successTask(), nil
}

func (f *fakeVCD) GetUser(orgName string, username string) (Record, error) {
	f.calls = append(f.calls, "GetUser:"+username)
	record, ok := f.users[username]
	if !ok {
		return Record{}, &NotFoundError{Kind: "user", Name: username}
	}
	return record, nil
}

func (f *fakeVCD) CreateUser(orgName string, spec UserSpec) (Record, error) {
	f.mutate("create-user:" + spec.Name)
	if err := f.userCreateErr[spec.Name]; err != nil {
		return Record{}, err
	}
	record := Record{Name: spec.Name, HREF: "https://vcd.test/api/admin/user/" + spec.Name}
	f.users[spec.Name] = record
	return record, nil
}

func (f *fakeVCD) ListOrgVdcNetworks(orgName string, vdcName string) ([]Record, error) {
	f.calls = append(f.calls, "ListOrgVdcNetworks")
	return f.networks, nil
}

func (f *fakeVCD) CreateIsolatedOrgVdcNetwork(orgName string, vdcName string, spec NetworkSpec) (Task, error) {
	f.mutate("create-network:" + spec.Name)
	f.lastNetworkSpec = spec
	if f.failTask["create-network"] {
		return failedTask(), nil
	}
	f.networks = append(f.networks, Record{Name: spec.Name, HREF: "https://vcd.test/api/network/1"})
	return successTask(), nil
}

func (f *fakeVCD) ShareCatalog(orgName string, catalogName string) error {
	f.calls = append(f.calls, "ShareCatalog")
	for _, catalog := range f.catalogs {
		if catalog.Name == catalogName {
			f.catalogShared = true
			return nil
		}
	}
	return &NotFoundError{Kind: "catalog", Name: catalogName}
}

func (f *fakeVCD) DisableVdc(orgName string, vdcName string) error {
	f.calls = append(f.calls, "DisableVdc")
	for _, vdc := range f.vdcs[orgName] {
		if vdc.Name == vdcName {
			// disabling an already disabled vdc resolves as success
			f.vdcDisabled = true
			return nil
		}
	}
	return &NotFoundError{Kind: "org vdc", Name: vdcName}
}

func (f *fakeVCD) DeleteVdc(orgName string, vdcName string) (Task, error) {
	for i, vdc := range f.vdcs[orgName] {
		if vdc.Name == vdcName {
			f.mutate("delete-vdc:" + vdcName)
			f.vdcs[orgName] = append(f.vdcs[orgName][:i], f.vdcs[orgName][i+1:]...)
			return successTask(), nil
		}
	}
	return nil, &NotFoundError{Kind: "org vdc", Name: vdcName}
}

// fakeOrgSession is a per-role session over the shared fake system.
type fakeOrgSession struct {
	vcd     *fakeVCD
	role    CommonRole
	logouts int
}

func (s *fakeOrgSession) ListCatalogs() ([]Record, error) {
	if s.vcd.catalogsErr != nil {
		return nil, s.vcd.catalogsErr
	}
	return s.vcd.catalogs, nil
}

func (s *fakeOrgSession) CreateCatalog(name string) (Task, error) {
	s.vcd.mutate("create-catalog:" + name)
	s.vcd.catalogs = append(s.vcd.catalogs, Record{Name: name, HREF: "https://vcd.test/api/catalog/1"})
	// catalog creation completes synchronously
	return nil, nil
}

func (s *fakeOrgSession) ListCatalogItems(catalogName string) ([]Record, error) {
	return s.vcd.items[catalogName], nil
}

func (s *fakeOrgSession) UploadTemplate(catalogName string, templatePath string, templateName string) (Task, error) {
	s.vcd.mutate("upload-template:" + templateName)
	if s.vcd.failTask["upload-template"] {
		return failedTask(), nil
	}
	s.vcd.items[catalogName] = append(s.vcd.items[catalogName],
		Record{Name: templateName, HREF: "https://vcd.test/api/catalogItem/1"})
	return successTask(), nil
}

func (s *fakeOrgSession) GetVApp(vdcName string, vappName string) (Record, error) {
	record, ok := s.vcd.vapps[vappName]
	if !ok {
		return Record{}, &NotFoundError{Kind: "vapp", Name: vappName}
	}
	return record, nil
}

func (s *fakeOrgSession) InstantiateVApp(vdcName string, spec VAppSpec) (Task, error) {
	s.vcd.mutate("instantiate-vapp:" + spec.Name)
	if s.vcd.failTask["instantiate-vapp"] {
		return failedTask(), nil
	}
	s.vcd.vapps[spec.Name] = Record{Name: spec.Name, HREF: "https://vcd.test/api/vApp/1"}
	return successTask(), nil
}

func (s *fakeOrgSession) DeleteVApp(vdcName string, vappName string) (Task, error) {
	if s.vcd.deleteVAppErr != nil {
		return nil, s.vcd.deleteVAppErr
	}
	if _, ok := s.vcd.vapps[vappName]; !ok {
		return nil, &NotFoundError{Kind: "vapp", Name: vappName}
	}
	s.vcd.mutate("delete-vapp:" + vappName)
	delete(s.vcd.vapps, vappName)
	return successTask(), nil
}

func (s *fakeOrgSession) Logout() error {
	s.logouts++
	return nil
}

// fakeSessions hands out sessions over one shared fakeVCD and keeps every
// org session it created so tests can check release counts.
type fakeSessions struct {
	vcd         *fakeVCD
	orgSessions []*fakeOrgSession
	closed      int
}

func newFakeSessions(vcd *fakeVCD) *fakeSessions {
	return &fakeSessions{vcd: vcd}
}

func (s *fakeSessions) SystemClient() (SystemAPI, error) {
	return s.vcd, nil
}

func (s *fakeSessions) OrgUserClient(role CommonRole) (OrgUserAPI, error) {
	session := &fakeOrgSession{vcd: s.vcd, role: role}
	s.orgSessions = append(s.orgSessions, session)
	return session, nil
}

func (s *fakeSessions) Close() error {
	s.closed++
	return nil
}

func testConfig() *config.TestConfig {
	return &config.TestConfig{
		VCD: config.VCDConfig{
			Host:               "https://vcd.test",
			SysOrg:             "System",
			SysAdminUsername:   "administrator",
			SysAdminPassword:   "secret",
			OrgUserPassword:    "changeme",
			PvdcName:           config.Wildcard,
			NetpoolName:        config.Wildcard,
			StorageProfileName: config.Wildcard,
			NetworkQuota:       10,
			OrgName:            "test-org",
			OvdcName:           "test-vdc",
			NetworkName:        "test-network",
			NetworkCIDR:        "10.0.0.0/24",
			CatalogName:        "test-catalog",
			TemplateName:       "test-template",
			TemplatePath:       "/tmp/test-template.ova",
			VAppName:           "test-vapp",
			VMName:             "testvm",
		},
		Tasks: config.TasksConfig{
			PollIntervalSeconds: 1,
			TimeoutSeconds:      5,
		},
	}
}
