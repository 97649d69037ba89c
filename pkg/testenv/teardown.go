/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package testenv

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Teardown reverses provisioning: the vApp goes first, then the org VDC
// (disabled before deletion). The org, its users, the catalog and the
// network stay behind for reuse by the next run. Resources that are
// already gone are treated as success; any other failure is fatal.
//
// In developer mode teardown is a logged no-op so that a locally
// provisioned environment survives between runs.
func (e *Environment) Teardown() error {
	if e.cfg.Global.DeveloperMode {
		klog.Info("developer mode is on, skipping teardown")
		return nil
	}

	if err := e.deleteVApp(); err != nil {
		return errors.Wrap(err, "tearing down vapp")
	}
	if err := e.deleteOrgVdc(); err != nil {
		return errors.Wrap(err, "tearing down org vdc")
	}

	e.reset()
	return e.sessions.Close()
}

// deleteVApp removes the test vApp under a vApp-author session. A vApp
// that is already absent resolves as a no-op.
func (e *Environment) deleteVApp() error {
	vdcName := e.cfg.VCD.OvdcName
	vappName := e.cfg.VCD.VAppName

	return e.withRoleSession(RoleVAppAuthor, func(client OrgUserAPI) error {
		task, err := client.DeleteVApp(vdcName, vappName)
		if err != nil {
			if IsNotFound(err) {
				klog.V(4).Infof("vapp [%s] is already gone", vappName)
				return nil
			}
			return err
		}
		return e.monitor.WaitForSuccess(task)
	})
}

// deleteOrgVdc disables the org VDC and deletes it. Disabling an already
// disabled VDC is success, as is deleting a VDC that no longer exists.
func (e *Environment) deleteOrgVdc() error {
	sys, err := e.sessions.SystemClient()
	if err != nil {
		return err
	}
	orgName := e.cfg.VCD.OrgName
	vdcName := e.cfg.VCD.OvdcName

	if err := sys.DisableVdc(orgName, vdcName); err != nil {
		if IsNotFound(err) {
			klog.V(4).Infof("org vdc [%s] is already gone", vdcName)
			return nil
		}
		return err
	}

	task, err := sys.DeleteVdc(orgName, vdcName)
	if err != nil {
		if IsNotFound(err) {
			klog.V(4).Infof("org vdc [%s] is already gone", vdcName)
			return nil
		}
		return err
	}
	return e.monitor.WaitForSuccess(task)
}

// reset clears every resolved handle, returning the environment to its
// pre-provisioning state.
func (e *Environment) reset() {
	e.pvdcName = ""
	e.pvdcHREF = ""
	e.orgHREF = ""
	e.ovdcHREF = ""
	e.networkHREF = ""
	e.vappHREF = ""
	e.userHREFs = make(map[CommonRole]string)
}
