// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vmmanager

import (
	"fmt"

	"github.com/juju/azure-cpi/internal/azureclient"
)

// MaxCreateAttempts is the number of times VM creation is submitted
// before giving up on a VM which keeps failing in provisioning.
const MaxCreateAttempts = 3

// state is a step of a Create call.
type state int

const (
	// stateResolving validates the request and creates or resolves
	// everything the VM depends on.
	stateResolving state = iota
	// stateProvisioning submits the VM creation.
	stateProvisioning
	// stateRetryCleanup removes the VM and its disks so creation
	// can be submitted again. Network interfaces are kept.
	stateRetryCleanup
	// stateTerminalCleanup removes the VM, its disks, its network
	// interfaces and its dynamic public IP.
	stateTerminalCleanup
	// stateAbortCleanup removes the network interfaces and dynamic
	// public IP named after the VM after resolution failed.
	stateAbortCleanup

	// Final states.
	stateSucceeded
	stateExhausted
	stateAborted
	stateCleanupFailed
)

var stateNames = map[state]string{
	stateResolving:       "resolving",
	stateProvisioning:    "provisioning",
	stateRetryCleanup:    "retry-cleanup",
	stateTerminalCleanup: "terminal-cleanup",
	stateAbortCleanup:    "abort-cleanup",
	stateSucceeded:       "succeeded",
	stateExhausted:       "exhausted",
	stateAborted:         "aborted",
	stateCleanupFailed:   "cleanup-failed",
}

func (s state) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s state) final() bool {
	return s >= stateSucceeded
}

// retryable reports whether a failed VM creation may be submitted
// again. Only an asynchronous failure with the status "Failed" is.
func retryable(err error) bool {
	status, ok := azureclient.AsyncOperationStatus(err)
	return ok && status == azureclient.StatusFailed
}

// transition returns the state following s, given the number of
// creation attempts made so far and the result of the step run in s.
// A failing cleanup step always leads to stateCleanupFailed.
func transition(s state, attempts int, err error) state {
	switch s {
	case stateResolving:
		if err != nil {
			return stateAbortCleanup
		}
		return stateProvisioning
	case stateProvisioning:
		switch {
		case err == nil:
			return stateSucceeded
		case !retryable(err):
			return stateTerminalCleanup
		case attempts < MaxCreateAttempts:
			return stateRetryCleanup
		default:
			return stateExhausted
		}
	case stateRetryCleanup:
		if err != nil {
			return stateCleanupFailed
		}
		return stateProvisioning
	case stateTerminalCleanup, stateAbortCleanup:
		if err != nil {
			return stateCleanupFailed
		}
		return stateAborted
	}
	return s
}
