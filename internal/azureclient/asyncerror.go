// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azureclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/juju/errors"
)

// StatusFailed is the terminal status of an asynchronous operation
// which failed in provisioning.
const StatusFailed = "Failed"

// AsyncOperationError is returned when a long running operation was
// accepted by the provider but finished in a failed state.
type AsyncOperationError struct {
	Status string
	Err    error
}

func (e *AsyncOperationError) Error() string {
	return fmt.Sprintf("asynchronous operation finished with status %q: %v", e.Status, e.Err)
}

func (e *AsyncOperationError) Unwrap() error {
	return e.Err
}

// AsyncOperationStatus returns the status of the asynchronous failure
// carried by err, if any.
func AsyncOperationStatus(err error) (string, bool) {
	asyncErr, ok := errors.AsType[*AsyncOperationError](err)
	if !ok {
		return "", false
	}
	return asyncErr.Status, true
}

// operationStatus is the subset of a polled payload which carries the
// terminal state of the operation.
type operationStatus struct {
	Status     string `json:"status"`
	Properties struct {
		ProvisioningState string `json:"provisioningState"`
	} `json:"properties"`
}

// asyncError converts an error returned while awaiting a long running
// operation. Polling which ended in a terminal failure state becomes an
// *AsyncOperationError; anything else is returned unchanged.
func asyncError(err error) error {
	respErr, ok := errors.AsType[*azcore.ResponseError](err)
	if !ok || respErr.RawResponse == nil || respErr.StatusCode >= http.StatusBadRequest {
		return err
	}
	status := StatusFailed
	if body, perr := runtime.Payload(respErr.RawResponse); perr == nil && len(body) > 0 {
		var s operationStatus
		if json.Unmarshal(body, &s) == nil {
			switch {
			case s.Status != "":
				status = s.Status
			case s.Properties.ProvisioningState != "":
				status = s.Properties.ProvisioningState
			}
		}
	}
	return &AsyncOperationError{Status: status, Err: err}
}
