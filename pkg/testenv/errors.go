/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package testenv

import (
	"errors"
	"fmt"
	"time"
)

// NotFoundError reports that a named resource of a given kind is absent.
// Callers branch on it structurally (IsNotFound), never on message text.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s [%s] not found", e.Kind, e.Name)
}

// IsNotFound reports whether err, at any wrap depth, is a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// NoneAvailableError reports that a listing of a resource kind came back
// empty, so neither a named pick nor a wildcard default is possible.
type NoneAvailableError struct {
	Kind string
}

func (e *NoneAvailableError) Error() string {
	return fmt.Sprintf("no %s available in the system", e.Kind)
}

// DependencyNotResolvedError reports a provisioning step invoked before the
// step that resolves its parent handle. It indicates a sequencing bug.
type DependencyNotResolvedError struct {
	Dependency string
}

func (e *DependencyNotResolvedError) Error() string {
	return fmt.Sprintf("dependency [%s] has not been resolved yet", e.Dependency)
}

// TaskFailedError reports a VCD task that reached a terminal state other
// than success.
type TaskFailedError struct {
	Status TaskStatus
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("task finished with status [%s]", e.Status)
}

// TaskTimeoutError reports a task that did not reach a terminal state
// within the monitor's bound. Kept distinct from TaskFailedError so that
// hangs and failures are distinguishable in run logs.
type TaskTimeoutError struct {
	Timeout time.Duration
}

func (e *TaskTimeoutError) Error() string {
	return fmt.Sprintf("task did not reach a terminal state within [%v]", e.Timeout)
}

// RemoteOperationError wraps a synchronous remote API failure. Such
// failures are never retried here.
type RemoteOperationError struct {
	Op  string
	Err error
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("remote operation [%s] failed: [%v]", e.Op, e.Err)
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}
