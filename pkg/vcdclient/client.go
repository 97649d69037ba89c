/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package vcdclient

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vmware/go-vcloud-director/v2/govcd"
	"k8s.io/klog/v2"

	"github.com/vmware/vcd-system-test-framework/pkg/config"
	"github.com/vmware/vcd-system-test-framework/pkg/testenv"
)

// Provider hands out authenticated VCD sessions for the test run. The
// system-administrator session is created lazily and cached for the life
// of the provider; org user sessions are fresh on every call and must be
// released by the caller.
//
// Provider implements testenv.SessionSource.
type Provider struct {
	cfg *config.TestConfig

	creatorLock sync.Mutex
	sysClient   *systemClient
}

// NewProvider :
func NewProvider(cfg *config.TestConfig) *Provider {
	return &Provider{cfg: cfg}
}

// SystemClient returns the cached system-administrator session, creating
// it on first use.
func (p *Provider) SystemClient() (testenv.SystemAPI, error) {
	p.creatorLock.Lock()
	defer p.creatorLock.Unlock()

	if p.sysClient != nil {
		return p.sysClient, nil
	}

	authConfig := NewVCDAuthConfig(p.cfg.VCD.Host, p.cfg.VCD.SysAdminUsername,
		p.cfg.VCD.SysAdminPassword, p.cfg.VCD.SysOrg, !p.cfg.Connection.Verify)
	vcdClient, err := authConfig.GetPlainClient()
	if err != nil {
		return nil, fmt.Errorf("unable to get sys admin client for [%s]: [%v]",
			p.cfg.VCD.Host, err)
	}
	klog.V(4).Infof("authenticated as [%s] in org [%s]", authConfig.User, authConfig.Org)

	p.sysClient = &systemClient{vcdClient: vcdClient}
	return p.sysClient, nil
}

// OrgUserClient returns a fresh session for the role's fixed user in the
// test org. The session is owned by the caller, who must Logout.
func (p *Provider) OrgUserClient(role testenv.CommonRole) (testenv.OrgUserAPI, error) {
	authConfig := NewVCDAuthConfig(p.cfg.VCD.Host, role.Username(),
		p.cfg.VCD.OrgUserPassword, p.cfg.VCD.OrgName, !p.cfg.Connection.Verify)
	vcdClient, err := authConfig.GetPlainClient()
	if err != nil {
		return nil, fmt.Errorf("unable to get client for user [%s] in org [%s]: [%v]",
			role.Username(), p.cfg.VCD.OrgName, err)
	}

	org, err := vcdClient.GetOrgByName(p.cfg.VCD.OrgName)
	if err != nil {
		if derr := vcdClient.Disconnect(); derr != nil {
			klog.Errorf("unable to disconnect session for user [%s]: [%v]", role.Username(), derr)
		}
		return nil, fmt.Errorf("unable to get org [%s]: [%v]", p.cfg.VCD.OrgName, err)
	}

	return &orgUserClient{vcdClient: vcdClient, org: org}, nil
}

// Close releases the cached system-administrator session.
func (p *Provider) Close() error {
	p.creatorLock.Lock()
	defer p.creatorLock.Unlock()

	if p.sysClient == nil {
		return nil
	}
	err := p.sysClient.vcdClient.Disconnect()
	p.sysClient = nil
	return err
}

// notFound converts govcd's entity-not-found sentinel into the typed
// error the provisioner branches on. Other errors pass through wrapped.
func notFound(kind string, name string, err error) error {
	if err == govcd.ErrorEntityNotFound ||
		strings.Contains(err.Error(), govcd.ErrorEntityNotFound.Error()) {
		return &testenv.NotFoundError{Kind: kind, Name: name}
	}
	return &testenv.RemoteOperationError{Op: fmt.Sprintf("get %s [%s]", kind, name), Err: err}
}
