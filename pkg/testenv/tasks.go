/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package testenv

import (
	"time"

	"k8s.io/klog/v2"
)

// TaskStatus is the status of an asynchronous VCD task, using VCD's own
// status vocabulary.
type TaskStatus string

const (
	TaskStatusQueued     = TaskStatus("queued")
	TaskStatusPreRunning = TaskStatus("preRunning")
	TaskStatusRunning    = TaskStatus("running")
	TaskStatusSuccess    = TaskStatus("success")
	TaskStatusError      = TaskStatus("error")
	TaskStatusCanceled   = TaskStatus("canceled")
	TaskStatusAborted    = TaskStatus("aborted")
)

// Terminal reports whether the status is one the task can never leave.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusSuccess, TaskStatusError, TaskStatusCanceled, TaskStatusAborted:
		return true
	}
	return false
}

// TaskMonitor polls a task until it reaches a terminal state, bounded by
// an overall timeout.
type TaskMonitor struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

// NewTaskMonitor :
func NewTaskMonitor(pollInterval time.Duration, timeout time.Duration) *TaskMonitor {
	return &TaskMonitor{
		PollInterval: pollInterval,
		Timeout:      timeout,
	}
}

// WaitForSuccess blocks until the task reaches a terminal state. A nil
// task counts as an operation that already completed synchronously. Any
// terminal state other than success is a TaskFailedError; exceeding the
// timeout without a terminal state is a TaskTimeoutError.
func (m *TaskMonitor) WaitForSuccess(task Task) error {
	if task == nil {
		return nil
	}

	deadline := time.Now().Add(m.Timeout)
	for {
		status, err := task.Poll()
		if err != nil {
			return err
		}
		if status.Terminal() {
			if status == TaskStatusSuccess {
				return nil
			}
			return &TaskFailedError{Status: status}
		}

		if time.Now().After(deadline) {
			return &TaskTimeoutError{Timeout: m.Timeout}
		}
		klog.V(5).Infof("task still in state [%s], polling again in %v", status, m.PollInterval)
		time.Sleep(m.PollInterval)
	}
}
