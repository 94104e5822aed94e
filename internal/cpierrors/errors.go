// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cpierrors defines the classified errors surfaced by VM
// provisioning. Every failure path yields exactly one of these.
package cpierrors

import (
	"fmt"

	"github.com/juju/errors"
)

// ValidationError is returned when the request is rejected before any
// provider resource is touched.
type ValidationError struct {
	Message string
}

// Validationf returns a ValidationError with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ResolutionError is returned when a subnet, security group, public IP or
// load balancer named by the request cannot be found.
type ResolutionError struct {
	Message string
	Err     error
}

// Resolutionf returns a ResolutionError with a formatted message.
func Resolutionf(format string, args ...interface{}) error {
	return &ResolutionError{Message: fmt.Sprintf(format, args...)}
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NICProvisioningError is returned when creating a network interface
// failed. Interfaces matching the VM name have already been removed.
type NICProvisioningError struct {
	Name string
	Err  error
}

func (e *NICProvisioningError) Error() string {
	return fmt.Sprintf("creating network interface %q: %v", e.Name, e.Err)
}

func (e *NICProvisioningError) Unwrap() error {
	return e.Err
}

// RetriesExhaustedError is returned when every VM creation attempt ended
// with a "Failed" asynchronous status. Nothing was cleaned up.
type RetriesExhaustedError struct {
	VMName   string
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf(
		"This VM fails in provisioning after multiple retries (%d attempts); "+
			"VM %q, its disks and network interfaces were left in place for diagnosis: %v",
		e.Attempts, e.VMName, e.Err,
	)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

// TerminalProvisioningError is returned when VM creation failed in a way
// that is not worth retrying. Everything created for the VM was removed.
type TerminalProvisioningError struct {
	VMName string
	Err    error
}

func (e *TerminalProvisioningError) Error() string {
	return fmt.Sprintf("creating virtual machine %q: %v", e.VMName, e.Err)
}

func (e *TerminalProvisioningError) Unwrap() error {
	return e.Err
}

// CleanupError is returned when a rollback action failed. It replaces the
// error that triggered the rollback; that error is kept only for
// diagnostics and is not part of the unwrap chain.
type CleanupError struct {
	Err   error
	cause error
}

// NewCleanupError returns a CleanupError for the failed rollback err
// which was triggered by cause.
func NewCleanupError(err, cause error) error {
	return &CleanupError{Err: err, cause: cause}
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleaning up after failed provisioning: %v", e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}

// Cause returns the error which triggered the failed cleanup.
func (e *CleanupError) Cause() error {
	return e.cause
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	return errors.HasType[*ValidationError](err)
}

// IsResolution reports whether err is a ResolutionError.
func IsResolution(err error) bool {
	return errors.HasType[*ResolutionError](err)
}

// IsNICProvisioning reports whether err is a NICProvisioningError.
func IsNICProvisioning(err error) bool {
	return errors.HasType[*NICProvisioningError](err)
}

// IsRetriesExhausted reports whether err is a RetriesExhaustedError.
func IsRetriesExhausted(err error) bool {
	return errors.HasType[*RetriesExhaustedError](err)
}

// IsTerminalProvisioning reports whether err is a TerminalProvisioningError.
func IsTerminalProvisioning(err error) bool {
	return errors.HasType[*TerminalProvisioningError](err)
}

// IsCleanup reports whether err is a CleanupError.
func IsCleanup(err error) bool {
	return errors.HasType[*CleanupError](err)
}
