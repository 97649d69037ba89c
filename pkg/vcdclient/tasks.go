/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package vcdclient

import (
	"fmt"

	"github.com/vmware/go-vcloud-director/v2/govcd"
	"k8s.io/klog/v2"

	"github.com/vmware/vcd-system-test-framework/pkg/testenv"
)

// remoteTask adapts a govcd task to the poll contract the task monitor
// drives. VCD's status vocabulary is used as-is.
type remoteTask struct {
	task govcd.Task
}

func newRemoteTask(task govcd.Task) testenv.Task {
	return &remoteTask{task: task}
}

func (t *remoteTask) Poll() (testenv.TaskStatus, error) {
	if err := t.task.Refresh(); err != nil {
		return "", fmt.Errorf("unable to refresh task: [%v]", err)
	}

	status := testenv.TaskStatus(t.task.Task.Status)
	if status == testenv.TaskStatusError && t.task.Task.Error != nil {
		klog.Errorf("task [%s] failed: [%s]", t.task.Task.Operation, t.task.Task.Error.Message)
	}
	return status, nil
}
