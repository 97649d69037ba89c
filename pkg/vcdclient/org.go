/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package vcdclient

import (
	"fmt"

	"github.com/vmware/go-vcloud-director/v2/govcd"
	"github.com/vmware/go-vcloud-director/v2/types/v56"

	"github.com/vmware/vcd-system-test-framework/pkg/testenv"
)

const catalogMimeType = "application/vnd.vmware.vcloud.catalog+xml"

// uploadPieceSize is the chunk size for OVA uploads, in bytes.
const uploadPieceSize = int64(1024 * 1024)

// orgUserClient is a per-role org session over govcd. It implements
// testenv.OrgUserAPI and is released with Logout.
type orgUserClient struct {
	vcdClient *govcd.VCDClient
	org       *govcd.Org
}

func (c *orgUserClient) ListCatalogs() ([]testenv.Record, error) {
	if err := c.org.Refresh(); err != nil {
		return nil, fmt.Errorf("unable to refresh org [%s]: [%v]", c.org.Org.Name, err)
	}

	var records []testenv.Record
	for _, link := range c.org.Org.Link {
		if link.Rel == "down" && link.Type == catalogMimeType {
			records = append(records, testenv.Record{Name: link.Name, HREF: link.HREF})
		}
	}
	return records, nil
}

func (c *orgUserClient) CreateCatalog(name string) (testenv.Task, error) {
	// govcd waits for the catalog's own creation tasks before returning,
	// so there is nothing left to poll.
	if _, err := c.org.CreateCatalog(name, "system test catalog"); err != nil {
		return nil, fmt.Errorf("unable to create catalog [%s]: [%v]", name, err)
	}
	return nil, nil
}

func (c *orgUserClient) ListCatalogItems(catalogName string) ([]testenv.Record, error) {
	catalog, err := c.org.GetCatalogByName(catalogName, true)
	if err != nil {
		return nil, notFound("catalog", catalogName, err)
	}

	var records []testenv.Record
	for _, items := range catalog.Catalog.CatalogItems {
		for _, ref := range items.CatalogItem {
			records = append(records, testenv.Record{Name: ref.Name, HREF: ref.HREF})
		}
	}
	return records, nil
}

func (c *orgUserClient) UploadTemplate(catalogName string, templatePath string,
	templateName string) (testenv.Task, error) {
	catalog, err := c.org.GetCatalogByName(catalogName, true)
	if err != nil {
		return nil, notFound("catalog", catalogName, err)
	}

	uploadTask, err := catalog.UploadOvf(templatePath, templateName, "system test template", uploadPieceSize)
	if err != nil {
		return nil, fmt.Errorf("unable to upload template [%s] from [%s]: [%v]",
			templateName, templatePath, err)
	}
	return newRemoteTask(*uploadTask.Task), nil
}

func (c *orgUserClient) GetVApp(vdcName string, vappName string) (testenv.Record, error) {
	vdc, err := c.org.GetVDCByName(vdcName, true)
	if err != nil {
		return testenv.Record{}, notFound("org vdc", vdcName, err)
	}

	vapp, err := vdc.GetVAppByName(vappName, true)
	if err != nil {
		return testenv.Record{}, notFound("vapp", vappName, err)
	}
	return testenv.Record{Name: vapp.VApp.Name, HREF: vapp.VApp.HREF}, nil
}

func (c *orgUserClient) InstantiateVApp(vdcName string, spec testenv.VAppSpec) (testenv.Task, error) {
	vdc, err := c.org.GetVDCByName(vdcName, true)
	if err != nil {
		return nil, notFound("org vdc", vdcName, err)
	}

	catalog, err := c.org.GetCatalogByName(spec.CatalogName, true)
	if err != nil {
		return nil, notFound("catalog", spec.CatalogName, err)
	}
	catalogItem, err := catalog.GetCatalogItemByName(spec.TemplateName, true)
	if err != nil {
		return nil, notFound("catalog item", spec.TemplateName, err)
	}
	vappTemplate, err := catalogItem.GetVAppTemplate()
	if err != nil {
		return nil, fmt.Errorf("unable to get vapp template [%s]: [%v]", spec.TemplateName, err)
	}

	orgVdcNetwork, err := vdc.GetOrgVdcNetworkByName(spec.NetworkName, true)
	if err != nil {
		return nil, notFound("org vdc network", spec.NetworkName, err)
	}
	networks := []*types.OrgVDCNetwork{orgVdcNetwork.OrgVDCNetwork}

	task, err := vdc.ComposeVApp(networks, vappTemplate, types.Reference{}, spec.Name,
		fmt.Sprintf("Description for [%s]", spec.Name), true)
	if err != nil {
		return nil, fmt.Errorf("unable to instantiate vapp [%s] from template [%s]: [%v]",
			spec.Name, spec.TemplateName, err)
	}
	return newRemoteTask(task), nil
}

func (c *orgUserClient) DeleteVApp(vdcName string, vappName string) (testenv.Task, error) {
	vdc, err := c.org.GetVDCByName(vdcName, true)
	if err != nil {
		return nil, notFound("org vdc", vdcName, err)
	}

	vapp, err := vdc.GetVAppByName(vappName, true)
	if err != nil {
		return nil, notFound("vapp", vappName, err)
	}

	// Undeploy may legitimately fail on a vApp that was never powered on.
	if task, err := vapp.Undeploy(); err == nil {
		_ = task.WaitTaskCompletion()
	}

	task, err := vapp.Delete()
	if err != nil {
		return nil, fmt.Errorf("unable to delete vapp [%s]: [%v]", vappName, err)
	}
	return newRemoteTask(task), nil
}

func (c *orgUserClient) Logout() error {
	return c.vcdClient.Disconnect()
}
