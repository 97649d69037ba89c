/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package vcdclient

import (
	"fmt"

	"github.com/vmware/go-vcloud-director/v2/govcd"
	"github.com/vmware/go-vcloud-director/v2/types/v56"
	"k8s.io/klog/v2"

	"github.com/vmware/vcd-system-test-framework/pkg/testenv"
)

// systemClient is the system-administrator adapter over govcd. It
// implements testenv.SystemAPI.
type systemClient struct {
	vcdClient *govcd.VCDClient
}

func (s *systemClient) ListProviderVdcs() ([]testenv.Record, error) {
	pvdcRecords, err := s.vcdClient.QueryProviderVdcs()
	if err != nil {
		return nil, fmt.Errorf("unable to query provider vdcs: [%v]", err)
	}

	records := make([]testenv.Record, 0, len(pvdcRecords))
	for _, pvdc := range pvdcRecords {
		records = append(records, testenv.Record{Name: pvdc.Name, HREF: pvdc.HREF})
	}
	return records, nil
}

func (s *systemClient) ListNetworkPools() ([]testenv.Record, error) {
	poolRecords, err := s.vcdClient.QueryNetworkPools()
	if err != nil {
		return nil, fmt.Errorf("unable to query network pools: [%v]", err)
	}

	records := make([]testenv.Record, 0, len(poolRecords))
	for _, pool := range poolRecords {
		records = append(records, testenv.Record{Name: pool.Name, HREF: pool.HREF})
	}
	return records, nil
}

func (s *systemClient) ListProviderStorageProfiles(pvdcHREF string) ([]testenv.Record, error) {
	profileRecords, err := s.vcdClient.QueryProviderVdcStorageProfiles()
	if err != nil {
		return nil, fmt.Errorf("unable to query provider vdc storage profiles: [%v]", err)
	}

	records := make([]testenv.Record, 0, len(profileRecords))
	for _, profile := range profileRecords {
		if pvdcHREF != "" && profile.ProviderVdcHREF != pvdcHREF {
			continue
		}
		records = append(records, testenv.Record{Name: profile.Name, HREF: profile.HREF})
	}
	return records, nil
}

func (s *systemClient) ListOrgs() ([]testenv.Record, error) {
	results, err := s.vcdClient.Client.QueryWithNotEncodedParams(nil, map[string]string{
		"type": "organization",
	})
	if err != nil {
		return nil, fmt.Errorf("unable to query orgs: [%v]", err)
	}

	records := make([]testenv.Record, 0, len(results.Results.OrgRecord))
	for _, org := range results.Results.OrgRecord {
		records = append(records, testenv.Record{Name: org.Name, HREF: org.HREF})
	}
	return records, nil
}

func (s *systemClient) CreateOrg(name string) (testenv.Task, error) {
	task, err := govcd.CreateOrg(s.vcdClient, name, name, "", &types.OrgSettings{}, true)
	if err != nil {
		return nil, fmt.Errorf("unable to create org [%s]: [%v]", name, err)
	}
	return newRemoteTask(task), nil
}

func (s *systemClient) ListOrgVdcs(orgName string) ([]testenv.Record, error) {
	adminOrg, err := s.vcdClient.GetAdminOrgByName(orgName)
	if err != nil {
		return nil, notFound("org", orgName, err)
	}

	// The VDC references on the admin org point at the ordinary vdc
	// hrefs, which is what role users need.
	var records []testenv.Record
	if adminOrg.AdminOrg.Vdcs != nil {
		for _, ref := range adminOrg.AdminOrg.Vdcs.Vdcs {
			records = append(records, testenv.Record{Name: ref.Name, HREF: ref.HREF})
		}
	}
	return records, nil
}

func (s *systemClient) CreateOrgVdc(orgName string, spec testenv.VdcSpec) (testenv.Task, error) {
	adminOrg, err := s.vcdClient.GetAdminOrgByName(orgName)
	if err != nil {
		return nil, notFound("org", orgName, err)
	}

	vdcConfiguration := &types.VdcConfiguration{
		Name:            spec.Name,
		AllocationModel: "AllocationVApp",
		ComputeCapacity: []*types.ComputeCapacity{
			{
				CPU:    &types.CapacityWithUsage{Units: "MHz", Allocated: 0, Limit: 0},
				Memory: &types.CapacityWithUsage{Units: "MB", Allocated: 0, Limit: 0},
			},
		},
		NetworkQuota: spec.NetworkQuota,
		VdcStorageProfile: []*types.VdcStorageProfileConfiguration{
			{
				Enabled: true,
				Units:   "MB",
				Limit:   spec.StorageLimitMB,
				Default: true,
				ProviderVdcStorageProfile: &types.Reference{
					HREF: spec.StorageProfileHREF,
					Name: spec.StorageProfileName,
				},
			},
		},
		NetworkPoolReference: &types.Reference{
			HREF: spec.NetworkPoolHREF,
			Name: spec.NetworkPoolName,
		},
		ProviderVdcReference: &types.Reference{
			HREF: spec.ProviderVdcHREF,
			Name: spec.ProviderVdcName,
		},
		IsEnabled: true,
	}

	task, err := adminOrg.CreateOrgVdcAsync(vdcConfiguration)
	if err != nil {
		return nil, fmt.Errorf("unable to create org vdc [%s] in org [%s]: [%v]",
			spec.Name, orgName, err)
	}
	return newRemoteTask(task), nil
}

func (s *systemClient) GetUser(orgName string, username string) (testenv.Record, error) {
	adminOrg, err := s.vcdClient.GetAdminOrgByName(orgName)
	if err != nil {
		return testenv.Record{}, notFound("org", orgName, err)
	}

	user, err := adminOrg.GetUserByName(username, true)
	if err != nil {
		return testenv.Record{}, notFound("user", username, err)
	}
	return testenv.Record{Name: user.User.Name, HREF: user.User.Href}, nil
}

func (s *systemClient) CreateUser(orgName string, spec testenv.UserSpec) (testenv.Record, error) {
	adminOrg, err := s.vcdClient.GetAdminOrgByName(orgName)
	if err != nil {
		return testenv.Record{}, notFound("org", orgName, err)
	}

	user, err := adminOrg.CreateUserSimple(govcd.OrgUserConfiguration{
		Name:      spec.Name,
		Password:  spec.Password,
		RoleName:  spec.RoleName,
		IsEnabled: true,
	})
	if err != nil {
		return testenv.Record{}, fmt.Errorf("unable to create user [%s] in org [%s]: [%v]",
			spec.Name, orgName, err)
	}
	return testenv.Record{Name: user.User.Name, HREF: user.User.Href}, nil
}

func (s *systemClient) ListOrgVdcNetworks(orgName string, vdcName string) ([]testenv.Record, error) {
	vdc, err := s.getVdc(orgName, vdcName)
	if err != nil {
		return nil, err
	}

	var records []testenv.Record
	for _, available := range vdc.Vdc.AvailableNetworks {
		for _, ref := range available.Network {
			records = append(records, testenv.Record{Name: ref.Name, HREF: ref.HREF})
		}
	}
	return records, nil
}

func (s *systemClient) CreateIsolatedOrgVdcNetwork(orgName string, vdcName string,
	spec testenv.NetworkSpec) (testenv.Task, error) {
	vdc, err := s.getVdc(orgName, vdcName)
	if err != nil {
		return nil, err
	}

	networkConfig := &types.OrgVDCNetwork{
		Xmlns: types.XMLNamespaceVCloud,
		Name:  spec.Name,
		Configuration: &types.NetworkConfiguration{
			FenceMode: types.FenceModeIsolated,
			IPScopes: &types.IPScopes{
				IPScope: []*types.IPScope{
					{
						IsInherited: false,
						IsEnabled:   true,
						Gateway:     spec.Gateway,
						Netmask:     spec.Netmask,
					},
				},
			},
		},
	}

	task, err := vdc.CreateOrgVDCNetwork(networkConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create org vdc network [%s] in vdc [%s]: [%v]",
			spec.Name, vdcName, err)
	}
	return newRemoteTask(task), nil
}

func (s *systemClient) ShareCatalog(orgName string, catalogName string) error {
	adminOrg, err := s.vcdClient.GetAdminOrgByName(orgName)
	if err != nil {
		return notFound("org", orgName, err)
	}

	adminCatalog, err := adminOrg.GetAdminCatalogByName(catalogName, true)
	if err != nil {
		return notFound("catalog", catalogName, err)
	}

	everyoneAccessLevel := types.ControlAccessReadOnly
	err = adminCatalog.SetAccessControl(&types.ControlAccessParams{
		IsSharedToEveryone:  true,
		EveryoneAccessLevel: &everyoneAccessLevel,
	}, false)
	if err != nil {
		return fmt.Errorf("unable to share catalog [%s] in org [%s]: [%v]",
			catalogName, orgName, err)
	}
	klog.V(4).Infof("shared catalog [%s] with all members of org [%s]", catalogName, orgName)
	return nil
}

func (s *systemClient) DisableVdc(orgName string, vdcName string) error {
	adminOrg, err := s.vcdClient.GetAdminOrgByName(orgName)
	if err != nil {
		return notFound("org", orgName, err)
	}

	adminVdc, err := adminOrg.GetAdminVDCByName(vdcName, true)
	if err != nil {
		return notFound("org vdc", vdcName, err)
	}

	if !adminVdc.AdminVdc.IsEnabled {
		klog.V(4).Infof("org vdc [%s] is already disabled", vdcName)
		return nil
	}

	adminVdc.AdminVdc.IsEnabled = false
	if _, err := adminVdc.Update(); err != nil {
		return fmt.Errorf("unable to disable org vdc [%s]: [%v]", vdcName, err)
	}
	return nil
}

func (s *systemClient) DeleteVdc(orgName string, vdcName string) (testenv.Task, error) {
	adminOrg, err := s.vcdClient.GetAdminOrgByName(orgName)
	if err != nil {
		return nil, notFound("org", orgName, err)
	}

	vdc, err := adminOrg.GetVDCByName(vdcName, true)
	if err != nil {
		return nil, notFound("org vdc", vdcName, err)
	}

	task, err := vdc.Delete(true, true)
	if err != nil {
		return nil, fmt.Errorf("unable to delete org vdc [%s]: [%v]", vdcName, err)
	}
	return newRemoteTask(task), nil
}

func (s *systemClient) getVdc(orgName string, vdcName string) (*govcd.Vdc, error) {
	org, err := s.vcdClient.GetOrgByName(orgName)
	if err != nil {
		return nil, notFound("org", orgName, err)
	}

	vdc, err := org.GetVDCByName(vdcName, true)
	if err != nil {
		return nil, notFound("org vdc", vdcName, err)
	}
	return vdc, nil
}
